package floats_test

import (
	"testing"

	"example.com/fuzzyctl/base/floats"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name      string
		input     []float64
		want      float64
		wantPanic bool
	}{
		{
			name:      "Nil slice",
			input:     nil,
			wantPanic: true,
		},
		{
			name:      "Empty slice",
			input:     []float64{},
			wantPanic: true,
		},
		{
			name:  "Single element",
			input: []float64{42.0},
			want:  42.0,
		},
		{
			name:  "Two elements",
			input: []float64{1.0, 2.0},
			want:  1.5,
		},
		{
			name:  "Three elements",
			input: []float64{3.0, 1.0, 2.0},
			want:  2.0,
		},
		{
			name:  "Four elements",
			input: []float64{4.0, 1.0, 3.0, 2.0},
			want:  2.5,
		},
		{
			name:  "Five elements",
			input: []float64{5.0, 4.0, 3.0, 2.0, 1.0},
			want:  3.0,
		},
		{
			name:  "Six elements",
			input: []float64{6.0, 5.0, 4.0, 3.0, 2.0, 1.0},
			want:  3.5,
		},
		{
			name:  "Seven elements",
			input: []float64{7.0, 6.0, 5.0, 4.0, 3.0, 2.0, 1.0},
			want:  4.0,
		},
		{
			name:  "Eight elements",
			input: []float64{8.0, 7.0, 6.0, 5.0, 4.0, 3.0, 2.0, 1.0},
			want:  4.5,
		},
		{
			name:  "Duplicate values",
			input: []float64{1.0, 2.0, 2.0, 3.0, 3.0, 4.0},
			want:  2.5,
		},
		{
			name:  "Negative values",
			input: []float64{-1.0, -2.0, -3.0, -4.0, -5.0},
			want:  -3.0,
		},
		{
			name:  "Mixed positive and negative values",
			input: []float64{-1.0, 2.0, -3.0, 4.0, -5.0, 6.0},
			want:  0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("expected panic, got none")
					}
				}()
				_ = floats.Median(tt.input)
			} else {
				got := floats.Median(tt.input)
				if got != tt.want {
					t.Errorf("Median(%v) = %v, want %v", tt.input, got, tt.want)
				}
			}
		})
	}
}

func TestLinspace(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi float64
		n      int
		want   []float64
	}{
		{"Single sample", -1.0, 1.0, 1, []float64{-1.0}},
		{"Two samples", -1.0, 1.0, 2, []float64{-1.0, 1.0}},
		{"Five samples", -1.0, 1.0, 5, []float64{-1.0, -0.5, 0.0, 0.5, 1.0}},
		{"Reversed interval", 2.0, 0.0, 3, []float64{2.0, 1.0, 0.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := floats.Linspace(tt.lo, tt.hi, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("Linspace(%v, %v, %v) = %v, want %v", tt.lo, tt.hi, tt.n, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Linspace(%v, %v, %v)[%d] = %v, want %v", tt.lo, tt.hi, tt.n, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLinspacePanicsWithoutSamples(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic, got none")
		}
	}()
	_ = floats.Linspace(0, 1, 0)
}

func TestClamp(t *testing.T) {
	tests := []struct {
		x, lo, hi float64
		want      float64
	}{
		{0.5, 0, 1, 0.5},
		{-0.5, 0, 1, 0},
		{1.5, 0, 1, 1},
		{0, 0, 1, 0},
		{1, 0, 1, 1},
	}

	for _, tt := range tests {
		got := floats.Clamp(tt.x, tt.lo, tt.hi)
		if got != tt.want {
			t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tt.x, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestMaxAbs(t *testing.T) {
	tests := []struct {
		input []float64
		want  float64
	}{
		{nil, 0},
		{[]float64{1, -3, 2}, 3},
		{[]float64{-0.25}, 0.25},
	}

	for _, tt := range tests {
		got := floats.MaxAbs(tt.input)
		if got != tt.want {
			t.Errorf("MaxAbs(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestMedianSortsInPlace(t *testing.T) {
	fs := []float64{3, 1, 2}
	if got := floats.Median(fs); got != 2 {
		t.Errorf("Median = %v, want 2", got)
	}
	if fs[0] != 1 || fs[1] != 2 || fs[2] != 3 {
		t.Errorf("Median left %v, want sorted values", fs)
	}
}
