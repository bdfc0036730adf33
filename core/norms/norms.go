// Package norms implements the fuzzy AND (t-norm), OR (t-conorm) and NOT
// operators a controller can be configured with.
package norms

import (
	"errors"
	"fmt"
)

var ErrUnknownKind = errors.New("unknown operator kind")

type Norm interface {
	Norm(a, b float64) float64
}

type Conorm interface {
	Conorm(a, b float64) float64
}

type Negation interface {
	Negate(a float64) float64
}

type Kind string

const (
	KindMin        Kind = "min"
	KindMax        Kind = "max"
	KindAlgebraic  Kind = "algebraic"
	KindEinstein   Kind = "einstein"
	KindComplement Kind = "complement"
)

type (
	Min              struct{}
	AlgebraicProduct struct{}
	EinsteinProduct  struct{}

	Max          struct{}
	AlgebraicSum struct{}
	EinsteinSum  struct{}

	Complement struct{}
)

var (
	_ Norm     = Min{}
	_ Norm     = AlgebraicProduct{}
	_ Norm     = EinsteinProduct{}
	_ Conorm   = Max{}
	_ Conorm   = AlgebraicSum{}
	_ Conorm   = EinsteinSum{}
	_ Negation = Complement{}
)

func (Min) Norm(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func (AlgebraicProduct) Norm(a, b float64) float64 {
	return a * b
}

func (EinsteinProduct) Norm(a, b float64) float64 {
	d := 2 - (a + b - a*b)
	if d == 0 {
		return 0
	}
	return a * b / d
}

func (Max) Conorm(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func (AlgebraicSum) Conorm(a, b float64) float64 {
	return a + b - a*b
}

func (EinsteinSum) Conorm(a, b float64) float64 {
	return (a + b) / (1 + a*b)
}

func (Complement) Negate(a float64) float64 {
	return 1 - a
}

func (Min) String() string              { return string(KindMin) }
func (AlgebraicProduct) String() string { return string(KindAlgebraic) }
func (EinsteinProduct) String() string  { return string(KindEinstein) }
func (Max) String() string              { return string(KindMax) }
func (AlgebraicSum) String() string     { return string(KindAlgebraic) }
func (EinsteinSum) String() string      { return string(KindEinstein) }
func (Complement) String() string       { return string(KindComplement) }

// NewNorm returns the AND operator of the given kind.
func NewNorm(k Kind) (Norm, error) {
	switch k {
	case KindMin:
		return Min{}, nil
	case KindAlgebraic:
		return AlgebraicProduct{}, nil
	case KindEinstein:
		return EinsteinProduct{}, nil
	default:
		return nil, fmt.Errorf("%w: norm %q", ErrUnknownKind, k)
	}
}

// NewConorm returns the OR operator of the given kind.
func NewConorm(k Kind) (Conorm, error) {
	switch k {
	case KindMax:
		return Max{}, nil
	case KindAlgebraic:
		return AlgebraicSum{}, nil
	case KindEinstein:
		return EinsteinSum{}, nil
	default:
		return nil, fmt.Errorf("%w: conorm %q", ErrUnknownKind, k)
	}
}

func NewNegation(k Kind) (Negation, error) {
	switch k {
	case KindComplement:
		return Complement{}, nil
	default:
		return nil, fmt.Errorf("%w: negation %q", ErrUnknownKind, k)
	}
}

// Dual returns the conorm kind paired with norm kind k under the standard
// complement.
func Dual(k Kind) (Kind, error) {
	switch k {
	case KindMin:
		return KindMax, nil
	case KindAlgebraic, KindEinstein:
		return k, nil
	default:
		return "", fmt.Errorf("%w: norm %q", ErrUnknownKind, k)
	}
}
