package floats

import (
	"math"
	"slices"
)

func midpoint(x, y float64) float64 {
	return x + (y-x)/2.0
}

// Median sorts fs in place.
func Median(fs []float64) float64 {
	n := len(fs)
	if n == 0 {
		panic("unexpected number of values")
	}
	slices.Sort(fs)
	i := n / 2
	if n%2 != 0 {
		return fs[i]
	}
	return midpoint(fs[i-1], fs[i])
}

// Linspace returns n evenly spaced samples over [lo, hi]. Both end points are
// included, each sample is computed from its index to avoid accumulated
// rounding.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		panic("unexpected number of samples")
	}
	if n == 1 {
		return []float64{lo}
	}
	xs := make([]float64, n)
	span := hi - lo
	last := float64(n - 1)
	for i := range xs {
		xs[i] = lo + span*float64(i)/last
	}
	xs[n-1] = hi
	return xs
}

func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func ApproxEqual(x, y, tol float64) bool {
	return math.Abs(x-y) <= tol
}

// MaxAbs returns the largest absolute value in fs, 0 for an empty slice.
func MaxAbs(fs []float64) float64 {
	var m float64
	for _, f := range fs {
		m = math.Max(m, math.Abs(f))
	}
	return m
}
