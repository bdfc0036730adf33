// Package benchmark measures the latency of fuzzy inference.
package benchmark

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"example.com/fuzzyctl/core/fuzzy"
)

// Summary describes the latency distribution of a benchmark run in
// nanoseconds.
type Summary struct {
	Count     int64
	Undefined int64
	Mean      float64
	P50, P99  int64
	Max       int64
	Elapsed   time.Duration
}

// RunInferenceBenchmark runs requests inference cycles on each of numWorkers
// goroutines, every goroutine with its own controller built by newCtrl.
// Inputs are drawn uniformly from the input domains with a fixed seed.
// The percentile table is written to w.
func RunInferenceBenchmark(w io.Writer, newCtrl func() (*fuzzy.Controller, error),
	numWorkers, requests int) (Summary, error) {
	if numWorkers <= 0 || requests <= 0 {
		panic("invalid benchmark size")
	}
	ctrls := make([]*fuzzy.Controller, numWorkers)
	for i := range ctrls {
		c, err := newCtrl()
		if err != nil {
			return Summary{}, err
		}
		ctrls[i] = c
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		undefined int64
		firstErr  error
	)
	total := hdrhistogram.New(1, int64(time.Second), 3)
	sg := make(chan struct{})
	wg.Add(numWorkers)
	for i, c := range ctrls {
		go func(i int, c *fuzzy.Controller) {
			defer wg.Done()
			hg := hdrhistogram.New(1, int64(time.Second), 3)
			rng := rand.New(rand.NewPCG(1, uint64(i)))
			var inputs []*fuzzy.Variable
			for _, v := range c.Variables() {
				if v.Role == fuzzy.RoleInput {
					inputs = append(inputs, v)
				}
			}
			in := make(map[string]float64, len(inputs))
			var undef int64
			var err error
			<-sg
			for j := requests; j > 0; j-- {
				for _, v := range inputs {
					in[v.Name] = v.Min + rng.Float64()*(v.Max-v.Min)
				}
				t0 := time.Now()
				_, ierr := c.Infer(in)
				d := time.Since(t0)
				if ierr != nil {
					if !errors.Is(ierr, fuzzy.ErrUndefinedOutput) {
						err = ierr
						break
					}
					undef++
				}
				if rerr := hg.RecordValue(max(d.Nanoseconds(), 1)); rerr != nil {
					err = fmt.Errorf("failed to record histogram value: %w", rerr)
					break
				}
			}
			mu.Lock()
			defer mu.Unlock()
			total.Merge(hg)
			undefined += undef
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}(i, c)
	}
	t0 := time.Now()
	close(sg)
	wg.Wait()
	elapsed := time.Since(t0)
	if firstErr != nil {
		return Summary{}, firstErr
	}

	if _, err := total.PercentilesPrint(w, 1, 1000.0); err != nil {
		return Summary{}, err
	}
	return Summary{
		Count:     total.TotalCount(),
		Undefined: undefined,
		Mean:      total.Mean(),
		P50:       total.ValueAtQuantile(50),
		P99:       total.ValueAtQuantile(99),
		Max:       total.Max(),
		Elapsed:   elapsed,
	}, nil
}
