package control

import (
	"example.com/fuzzyctl/base/floats"
)

// Sample is the record of one control cycle.
type Sample struct {
	Step      int
	Inputs    map[string]float64
	Outputs   map[string]float64
	Undefined bool
}

// History keeps the most recent samples in a FIFO window of fixed capacity.
type History struct {
	state []Sample
}

func NewHistory(cap int) *History {
	if cap <= 0 {
		panic("cap must be greater than 0")
	}
	return &History{state: make([]Sample, 0, cap)}
}

func (h *History) Add(s Sample) {
	if len(h.state) == cap(h.state) {
		copy(h.state, h.state[1:])
		h.state = h.state[:len(h.state)-1]
	}
	h.state = append(h.state, s)
}

func (h *History) Len() int { return len(h.state) }

// Samples returns the window, oldest first.
func (h *History) Samples() []Sample {
	return append([]Sample(nil), h.state...)
}

// Series returns the values of the named input or output over the window.
// Samples without that signal are skipped.
func (h *History) Series(name string) []float64 {
	var xs []float64
	for _, s := range h.state {
		if x, ok := s.Inputs[name]; ok {
			xs = append(xs, x)
		} else if x, ok := s.Outputs[name]; ok {
			xs = append(xs, x)
		}
	}
	return xs
}

// Median returns the median of the named signal over the window.
func (h *History) Median(name string) (float64, bool) {
	xs := h.Series(name)
	if len(xs) == 0 {
		return 0, false
	}
	return floats.Median(xs), true
}

// Undefined returns the number of samples in the window whose controller
// output was undefined.
func (h *History) Undefined() int {
	var n int
	for _, s := range h.state {
		if s.Undefined {
			n++
		}
	}
	return n
}

func (h *History) Reset() {
	h.state = h.state[:0]
}
