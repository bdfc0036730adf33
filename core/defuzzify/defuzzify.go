// Package defuzzify turns the aggregated fuzzy set of an output variable into
// a crisp value.
package defuzzify

import (
	"errors"
	"fmt"

	"example.com/fuzzyctl/base/floats"
	"example.com/fuzzyctl/core/membership"
	"example.com/fuzzyctl/core/norms"
)

const DefaultSamples = 500

var (
	ErrUndefinedOutput = errors.New("undefined output: aggregated degree is zero everywhere")
	ErrUnknownKind     = errors.New("unknown defuzzification kind")
	ErrInvalidUniverse = errors.New("invalid universe of discourse")
)

// Universe is the sampled domain an output variable is defuzzified over.
type Universe struct {
	Min, Max float64
	Samples  int
}

func (u Universe) validate() error {
	if !(u.Min < u.Max) || u.Samples < 2 {
		return fmt.Errorf("%w: [%v, %v] with %d samples", ErrInvalidUniverse, u.Min, u.Max, u.Samples)
	}
	return nil
}

// Set is one adjective of an output variable together with the firing
// strength accumulated for it during inference.
type Set struct {
	MF       membership.Function
	Strength float64
}

type Strategy interface {
	Defuzzify(u Universe, sets []Set, acc norms.Conorm) (float64, error)
}

// Aggregate samples the output fuzzy set: at every x each membership function
// is clipped at its strength and the clipped degrees are combined with acc.
func Aggregate(u Universe, sets []Set, acc norms.Conorm) (xs, ys []float64, err error) {
	if err := u.validate(); err != nil {
		return nil, nil, err
	}
	xs = floats.Linspace(u.Min, u.Max, u.Samples)
	ys = make([]float64, len(xs))
	for _, s := range sets {
		if s.Strength <= 0 {
			continue
		}
		for i, x := range xs {
			d := s.MF.Evaluate(x)
			if d > s.Strength {
				d = s.Strength
			}
			ys[i] = acc.Conorm(ys[i], d)
		}
	}
	return xs, ys, nil
}

// COG returns the center of gravity of the aggregated set.
type COG struct{}

// MaxLeft returns the smallest x at which the aggregated set attains its
// maximum.
type MaxLeft struct{}

// MaxRight returns the largest x at which the aggregated set attains its
// maximum.
type MaxRight struct{}

// MeanOfMaxima returns the mean of all x at which the aggregated set attains
// its maximum.
type MeanOfMaxima struct{}

var (
	_ Strategy = COG{}
	_ Strategy = MaxLeft{}
	_ Strategy = MaxRight{}
	_ Strategy = MeanOfMaxima{}
)

func (COG) Defuzzify(u Universe, sets []Set, acc norms.Conorm) (float64, error) {
	xs, ys, err := Aggregate(u, sets, acc)
	if err != nil {
		return 0, err
	}
	var num, den float64
	for i, x := range xs {
		num += x * ys[i]
		den += ys[i]
	}
	if den == 0 {
		return 0, ErrUndefinedOutput
	}
	return num / den, nil
}

func maxima(u Universe, sets []Set, acc norms.Conorm) ([]float64, error) {
	xs, ys, err := Aggregate(u, sets, acc)
	if err != nil {
		return nil, err
	}
	var m float64
	for _, y := range ys {
		if y > m {
			m = y
		}
	}
	if m == 0 {
		return nil, ErrUndefinedOutput
	}
	var at []float64
	for i, y := range ys {
		if y == m {
			at = append(at, xs[i])
		}
	}
	return at, nil
}

func (MaxLeft) Defuzzify(u Universe, sets []Set, acc norms.Conorm) (float64, error) {
	at, err := maxima(u, sets, acc)
	if err != nil {
		return 0, err
	}
	return at[0], nil
}

func (MaxRight) Defuzzify(u Universe, sets []Set, acc norms.Conorm) (float64, error) {
	at, err := maxima(u, sets, acc)
	if err != nil {
		return 0, err
	}
	return at[len(at)-1], nil
}

func (MeanOfMaxima) Defuzzify(u Universe, sets []Set, acc norms.Conorm) (float64, error) {
	at, err := maxima(u, sets, acc)
	if err != nil {
		return 0, err
	}
	var s float64
	for _, x := range at {
		s += x
	}
	return s / float64(len(at)), nil
}

type Kind string

const (
	KindCOG          Kind = "cog"
	KindMaxLeft      Kind = "max-left"
	KindMaxRight     Kind = "max-right"
	KindMeanOfMaxima Kind = "mean-of-maxima"
)

func (COG) String() string          { return string(KindCOG) }
func (MaxLeft) String() string      { return string(KindMaxLeft) }
func (MaxRight) String() string     { return string(KindMaxRight) }
func (MeanOfMaxima) String() string { return string(KindMeanOfMaxima) }

func New(k Kind) (Strategy, error) {
	switch k {
	case KindCOG:
		return COG{}, nil
	case KindMaxLeft:
		return MaxLeft{}, nil
	case KindMaxRight:
		return MaxRight{}, nil
	case KindMeanOfMaxima:
		return MeanOfMaxima{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
}
