package membership

import (
	"fmt"
	"math"
)

func checkInterval(a, b float64) error {
	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return fmt.Errorf("%w: interval [%v, %v] not finite", ErrConfiguration, a, b)
	}
	if !(a < b) {
		return fmt.Errorf("%w: interval [%v, %v] is empty", ErrConfiguration, a, b)
	}
	return nil
}

// Uniform splits [a, b] into n overlapping triangles with step
// dx = (b-a)/(n+1). Triangle i peaks at a+(i+1)*dx, so neighbouring
// triangles sum to 1 everywhere between the first and the last peak.
func Uniform(a, b float64, n int) ([]*Polygon, error) {
	if err := checkInterval(a, b); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: uniform partition needs n >= 1, got %d", ErrConfiguration, n)
	}
	return saw(a, b, n)
}

func saw(a, b float64, n int) ([]*Polygon, error) {
	dx := (b - a) / float64(n+1)
	at := func(k int) float64 {
		if k == n+1 {
			return b
		}
		return a + float64(k)*dx
	}
	mfs := make([]*Polygon, 0, n)
	for i := 0; i < n; i++ {
		mf, err := NewPolygon(
			Point{at(i), 0},
			Point{at(i + 1), 1},
			Point{at(i + 2), 0},
		)
		if err != nil {
			return nil, err
		}
		mfs = append(mfs, mf)
	}
	return mfs, nil
}

// Saturated splits [a, b] into a decreasing ramp that is flat at 1 towards
// -inf, n-2 triangles and an increasing ramp that is flat at 1 towards +inf.
// The degrees of the family sum to 1 over the whole interval.
func Saturated(a, b float64, n int) ([]*Polygon, error) {
	if err := checkInterval(a, b); err != nil {
		return nil, err
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: saturated partition needs n >= 2, got %d", ErrConfiguration, n)
	}
	dx := (b - a) / float64(n+1)
	lo, hi := a+dx, b-dx
	left, err := NewPolygon(Point{a, 1}, Point{lo, 1}, Point{a + 2*dx, 0})
	if err != nil {
		return nil, err
	}
	right, err := NewPolygon(Point{b - 2*dx, 0}, Point{hi, 1}, Point{b, 1})
	if err != nil {
		return nil, err
	}
	mfs := make([]*Polygon, 0, n)
	mfs = append(mfs, left)
	if n > 2 {
		inner, err := saw(lo, hi, n-2)
		if err != nil {
			return nil, err
		}
		mfs = append(mfs, inner...)
	}
	mfs = append(mfs, right)
	return mfs, nil
}
