package control_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"example.com/fuzzyctl/base/metrics"
	"example.com/fuzzyctl/core/control"
	"example.com/fuzzyctl/core/fuzzy"
)

// scripted returns its outputs in turn; a nil entry is an undefined output.
type scripted struct {
	outs []map[string]float64
	i    int
	err  error
}

func (s *scripted) Infer(map[string]float64, ...string) (map[string]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	o := s.outs[s.i%len(s.outs)]
	s.i++
	if o == nil {
		return map[string]float64{}, &fuzzy.UndefinedOutputError{Variable: "force"}
	}
	return maps.Clone(o), nil
}

func (s *scripted) Outputs() []string { return []string{"force"} }

type recorder struct {
	x       float64
	applied []float64
}

func (r *recorder) Signals() map[string]float64 {
	r.x++
	return map[string]float64{"angle": r.x}
}

func (r *recorder) Apply(outputs map[string]float64) {
	r.applied = append(r.applied, outputs["force"])
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func force(x float64) map[string]float64 { return map[string]float64{"force": x} }

func TestFallback(t *testing.T) {
	tests := []struct {
		fallback control.Fallback
		want     []float64
	}{
		{control.FallbackHold, []float64{3, 3, 3, 5}},
		{control.FallbackZero, []float64{3, 0, 0, 5}},
	}

	for _, tt := range tests {
		ctrl := &scripted{outs: []map[string]float64{force(3), nil, nil, force(5)}}
		plant := &recorder{}
		l := control.NewLoop(ctrl, plant, control.WithLogger(quiet), control.WithFallback(tt.fallback))
		if err := l.Run(context.Background(), 4); err != nil {
			t.Fatalf("%s: Run failed: %v", tt.fallback, err)
		}
		if len(plant.applied) != len(tt.want) {
			t.Fatalf("%s: applied %v, want %v", tt.fallback, plant.applied, tt.want)
		}
		for i := range tt.want {
			if plant.applied[i] != tt.want[i] {
				t.Errorf("%s: step %d applied %v, want %v", tt.fallback, i, plant.applied[i], tt.want[i])
			}
		}
		if n := l.History().Undefined(); n != 2 {
			t.Errorf("%s: %d undefined samples, want 2", tt.fallback, n)
		}
	}
}

func TestFallbackStop(t *testing.T) {
	ctrl := &scripted{outs: []map[string]float64{force(1), nil, force(2)}}
	plant := &recorder{}
	l := control.NewLoop(ctrl, plant, control.WithLogger(quiet), control.WithFallback(control.FallbackStop))
	err := l.Run(context.Background(), 10)
	if !errors.Is(err, control.ErrStopped) || !errors.Is(err, fuzzy.ErrUndefinedOutput) {
		t.Fatalf("Run error = %v, want ErrStopped wrapping ErrUndefinedOutput", err)
	}
	if len(plant.applied) != 1 {
		t.Errorf("applied %v after stop, want one value", plant.applied)
	}
	if l.History().Len() != 2 {
		t.Errorf("history has %d samples, want 2", l.History().Len())
	}
}

func TestInferenceError(t *testing.T) {
	ctrl := &scripted{err: fuzzy.ErrReference}
	l := control.NewLoop(ctrl, &recorder{}, control.WithLogger(quiet))
	if err := l.Step(context.Background()); !errors.Is(err, fuzzy.ErrReference) {
		t.Errorf("Step error = %v, want ErrReference", err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	plant := &recorder{}
	l := control.NewLoop(&scripted{outs: []map[string]float64{force(1)}}, plant, control.WithLogger(quiet))
	if err := l.Run(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
	if len(plant.applied) != 0 {
		t.Errorf("cancelled loop applied %v", plant.applied)
	}
}

func counter(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	ctrl := &scripted{outs: []map[string]float64{force(1), nil, force(2), nil, force(3)}}
	l := control.NewLoop(ctrl, &recorder{}, control.WithLogger(quiet), control.WithRegisterer(reg))
	if err := l.Run(context.Background(), 5); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	l.Reconfigure(&scripted{outs: []map[string]float64{force(4)}})
	if err := l.Step(context.Background()); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	if got := counter(t, reg, metrics.ControlCyclesN); got != 6 {
		t.Errorf("cycles = %v, want 6", got)
	}
	if got := counter(t, reg, metrics.ControlUndefinedN); got != 2 {
		t.Errorf("undefined outputs = %v, want 2", got)
	}
	if got := counter(t, reg, metrics.ControlReconfigurationN); got != 1 {
		t.Errorf("reconfigurations = %v, want 1", got)
	}
}

func TestHistoryWindow(t *testing.T) {
	h := control.NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Add(control.Sample{
			Step:    i,
			Inputs:  map[string]float64{"angle": float64(10 - i)},
			Outputs: map[string]float64{"force": float64(i)},
		})
	}
	ss := h.Samples()
	if len(ss) != 3 || ss[0].Step != 2 || ss[2].Step != 4 {
		t.Fatalf("window = %+v, want steps 2..4", ss)
	}
	if m, ok := h.Median("angle"); !ok || m != 7 {
		t.Errorf("Median(angle) = %v, %v, want 7", m, ok)
	}
	if got := h.Series("force"); len(got) != 3 || got[0] != 2 || got[2] != 4 {
		t.Errorf("Series(force) = %v, want [2 3 4]", got)
	}
	if _, ok := h.Median("rate"); ok {
		t.Errorf("Median of missing signal reported ok")
	}
	h.Reset()
	if h.Len() != 0 {
		t.Errorf("Len after Reset = %d", h.Len())
	}
}

func TestParseFallback(t *testing.T) {
	for s, want := range map[string]control.Fallback{
		"":     control.FallbackHold,
		"hold": control.FallbackHold,
		"zero": control.FallbackZero,
		"stop": control.FallbackStop,
	} {
		if got, err := control.ParseFallback(s); err != nil || got != want {
			t.Errorf("ParseFallback(%q) = %v, %v, want %v", s, got, err, want)
		}
	}
	if _, err := control.ParseFallback("retry"); !errors.Is(err, control.ErrUnknownFallback) {
		t.Errorf("ParseFallback(retry) error = %v, want ErrUnknownFallback", err)
	}
}
