// Package membership provides piecewise-linear membership functions and
// generators for overlapping families of them.
package membership

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrConfiguration = errors.New("invalid membership function configuration")

// Function maps a crisp value to a degree of membership in [0, 1].
type Function interface {
	Evaluate(x float64) float64
}

type Point struct {
	X, Y float64
}

// Polygon is a membership function defined by control points with strictly
// increasing x. Between points the degree is interpolated linearly. Outside
// the domain the degree is 0, unless the outermost segment is flat, in which
// case the boundary degree extends to infinity.
type Polygon struct {
	pts []Point
}

var _ Function = (*Polygon)(nil)

func NewPolygon(pts ...Point) (*Polygon, error) {
	if len(pts) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 points, got %d", ErrConfiguration, len(pts))
	}
	for i, p := range pts {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) {
			return nil, fmt.Errorf("%w: point %d: x = %v", ErrConfiguration, i, p.X)
		}
		if !(p.Y >= 0 && p.Y <= 1) {
			return nil, fmt.Errorf("%w: point %d: y = %v not in [0, 1]", ErrConfiguration, i, p.Y)
		}
		if i > 0 && !(p.X > pts[i-1].X) {
			return nil, fmt.Errorf("%w: point %d: x = %v not increasing", ErrConfiguration, i, p.X)
		}
	}
	return &Polygon{pts: append([]Point(nil), pts...)}, nil
}

// Triangle returns the function rising from 0 at a to 1 at b and falling back
// to 0 at c.
func Triangle(a, b, c float64) (*Polygon, error) {
	return NewPolygon(Point{a, 0}, Point{b, 1}, Point{c, 0})
}

// Trapezoid returns the function rising from 0 at a to 1 at b, flat until c
// and falling back to 0 at d.
func Trapezoid(a, b, c, d float64) (*Polygon, error) {
	return NewPolygon(Point{a, 0}, Point{b, 1}, Point{c, 1}, Point{d, 0})
}

func (p *Polygon) Evaluate(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	pts := p.pts
	n := len(pts)
	first, last := pts[0], pts[n-1]
	if x < first.X {
		if pts[1].Y == first.Y {
			return first.Y
		}
		return 0
	}
	if x > last.X {
		if pts[n-2].Y == last.Y {
			return last.Y
		}
		return 0
	}
	// index of the first point with X >= x
	i := sort.Search(n, func(i int) bool { return pts[i].X >= x })
	if pts[i].X == x {
		return pts[i].Y
	}
	p0, p1 := pts[i-1], pts[i]
	y := p0.Y + (p1.Y-p0.Y)*(x-p0.X)/(p1.X-p0.X)
	return math.Max(0, math.Min(1, y))
}

func (p *Polygon) Points() []Point {
	return append([]Point(nil), p.pts...)
}

// Domain returns the x range spanned by the control points.
func (p *Polygon) Domain() (lo, hi float64) {
	return p.pts[0].X, p.pts[len(p.pts)-1].X
}

// Centroid returns the x coordinate of the centroid of the area under the
// polygon within its domain. It fails if that area is zero.
func (p *Polygon) Centroid() (float64, error) {
	var area, moment float64
	for i := 1; i < len(p.pts); i++ {
		x0, y0 := p.pts[i-1].X, p.pts[i-1].Y
		x1, y1 := p.pts[i].X, p.pts[i].Y
		dx := x1 - x0
		area += dx * (y0 + y1) / 2
		// first moment of a trapezoid over [x0, x1]
		moment += dx * (y0*(2*x0+x1) + y1*(x0+2*x1)) / 6
	}
	if area == 0 {
		return 0, fmt.Errorf("%w: zero area", ErrConfiguration)
	}
	return moment / area, nil
}

// Sample evaluates f at every x in xs.
func Sample(f Function, xs []float64) []float64 {
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = f.Evaluate(x)
	}
	return ys
}
