package chart_test

import (
	"bytes"
	"errors"
	"testing"

	"example.com/fuzzyctl/core/config"
	"example.com/fuzzyctl/core/control"
	"example.com/fuzzyctl/driver/chart"
)

func isPDF(b []byte) bool {
	return bytes.HasPrefix(b, []byte("%PDF-"))
}

func TestCurves(t *testing.T) {
	c, err := config.Pendulum().Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	cs, err := c.Curves("angle", 200)
	if err != nil {
		t.Fatalf("Curves failed: %v", err)
	}
	var buf bytes.Buffer
	if err := chart.Curves(&buf, "angle", cs); err != nil {
		t.Fatalf("chart.Curves failed: %v", err)
	}
	if !isPDF(buf.Bytes()) {
		t.Errorf("output is not a PDF")
	}

	res, err := c.Infer(map[string]float64{"angle": 0.3, "rate": -1})
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}
	xs, ys, err := c.Aggregated("force")
	if err != nil {
		t.Fatalf("Aggregated failed: %v", err)
	}
	buf.Reset()
	if err := chart.Aggregated(&buf, "force", xs, ys, res["force"]); err != nil {
		t.Fatalf("chart.Aggregated failed: %v", err)
	}
	if !isPDF(buf.Bytes()) {
		t.Errorf("output is not a PDF")
	}
}

func TestTrajectory(t *testing.T) {
	h := control.NewHistory(10)
	for i := 0; i < 10; i++ {
		h.Add(control.Sample{
			Step:    i,
			Inputs:  map[string]float64{"angle": 0.4 / float64(i+1)},
			Outputs: map[string]float64{"force": 10 / float64(i+1)},
		})
	}
	var buf bytes.Buffer
	if err := chart.Trajectory(&buf, h, 0.01, "angle", "force"); err != nil {
		t.Fatalf("Trajectory failed: %v", err)
	}
	if !isPDF(buf.Bytes()) {
		t.Errorf("output is not a PDF")
	}
	if err := chart.Trajectory(&buf, h, 0.01, "height"); !errors.Is(err, chart.ErrNoData) {
		t.Errorf("Trajectory(height) error = %v, want ErrNoData", err)
	}
	if err := chart.Trajectory(&buf, control.NewHistory(1), 0.01, "angle"); !errors.Is(err, chart.ErrNoData) {
		t.Errorf("Trajectory of empty history error = %v, want ErrNoData", err)
	}
}
