package main

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"go.uber.org/zap"

	"example.com/fuzzyctl/core/config"
	"example.com/fuzzyctl/core/fuzzy"
)

func init() {
	log = zap.NewNop()
}

func TestValuesFlag(t *testing.T) {
	f := valuesFlag{}
	for _, s := range []string{"angle=0.5", "rate=-2"} {
		if err := f.Set(s); err != nil {
			t.Fatalf("Set(%q) failed: %v", s, err)
		}
	}
	if f["angle"] != 0.5 || f["rate"] != -2 {
		t.Errorf("values = %v, want angle=0.5 rate=-2", map[string]float64(f))
	}
	if got, want := f.String(), "angle=0.5,rate=-2"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	for _, s := range []string{"angle", "=1", "angle=x"} {
		if err := f.Set(s); err == nil {
			t.Errorf("Set(%q) succeeded", s)
		}
	}
}

func TestRunInfer(t *testing.T) {
	var b bytes.Buffer
	err := runInfer(&b, "", map[string]float64{"angle": 0, "rate": 0}, nil, false)
	if err != nil {
		t.Fatalf("runInfer failed: %v", err)
	}
	name, value, ok := strings.Cut(strings.TrimSpace(b.String()), " ")
	if !ok || name != "force" {
		t.Fatalf("output = %q, want force value", b.String())
	}
	x, err := strconv.ParseFloat(value, 64)
	if err != nil {
		t.Fatalf("output = %q: %v", b.String(), err)
	}
	if math.Abs(x) > 1e-6 {
		t.Errorf("force at rest = %v, want 0", x)
	}
}

func TestRunInferUnknownInput(t *testing.T) {
	var b bytes.Buffer
	err := runInfer(&b, "", map[string]float64{"height": 1}, nil, false)
	if !errors.Is(err, fuzzy.ErrReference) {
		t.Errorf("runInfer error = %v, want ErrReference", err)
	}
}

func TestRunSimulate(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "trajectory.pdf")
	var b bytes.Buffer
	err := runSimulate(context.Background(), &b, simulation{steps: 200, outFile: out})
	if err != nil {
		t.Fatalf("runSimulate failed: %v", err)
	}
	if !strings.HasPrefix(b.String(), "t=2.000s") {
		t.Errorf("summary = %q, want t=2.000s prefix", b.String())
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("trajectory not written: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("trajectory is not a PDF")
	}
}

func TestRunConfig(t *testing.T) {
	for _, f := range []config.Format{config.TOML, config.YAML} {
		var b bytes.Buffer
		if err := runConfig(&b, "", string(f)); err != nil {
			t.Fatalf("runConfig(%s) failed: %v", f, err)
		}
		cfg, err := config.Decode(&b, f)
		if err != nil {
			t.Fatalf("%s: decoding dumped config failed: %v", f, err)
		}
		if _, err := cfg.Build(); err != nil {
			t.Errorf("%s: dumped config does not build: %v", f, err)
		}
	}
	if err := runConfig(&bytes.Buffer{}, "", "json"); !errors.Is(err, config.ErrFormat) {
		t.Errorf("runConfig(json) error = %v, want ErrFormat", err)
	}
}

func TestRunPlot(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "angle.pdf")
	if err := runPlot("", "angle", out, nil); err != nil {
		t.Fatalf("runPlot failed: %v", err)
	}
	if err := runPlot("", "height", filepath.Join(dir, "x.pdf"), nil); !errors.Is(err, fuzzy.ErrReference) {
		t.Errorf("runPlot(height) error = %v, want ErrReference", err)
	}
}
