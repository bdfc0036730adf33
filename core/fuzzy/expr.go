package fuzzy

import (
	"fmt"
)

// Expr is a rule antecedent: an adjective reference, an AND/OR of two
// sub-expressions, or the negation of one. The operators themselves are
// looked up in the controller's Logic at evaluation time.
type Expr interface {
	fmt.Stringer
	eval(cy *cycle) float64
	bind(c *Controller) (Expr, error)
}

type Op int

const (
	OpAnd Op = iota
	OpOr
)

func (op Op) String() string {
	switch op {
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

// Input is satisfied to the degree the input variable's current value belongs
// to the adjective.
type Input struct {
	Ref

	v *Variable
	a *Adjective
}

type Compound struct {
	Op          Op
	Left, Right Expr
}

type Not struct {
	X Expr
}

var (
	_ Expr = (*Input)(nil)
	_ Expr = (*Compound)(nil)
	_ Expr = (*Not)(nil)
)

func Is(variable, adjective string) *Input {
	return &Input{Ref: Ref{Variable: variable, Adjective: adjective}}
}

func And(l, r Expr) *Compound { return &Compound{Op: OpAnd, Left: l, Right: r} }

func Or(l, r Expr) *Compound { return &Compound{Op: OpOr, Left: l, Right: r} }

func Negate(x Expr) *Not { return &Not{X: x} }

// cycle carries the state of one inference pass through evaluation.
type cycle struct {
	epoch uint64
	logic *Logic
}

func (x *Input) String() string {
	return x.Variable + " is " + x.Adjective
}

func (x *Input) eval(cy *cycle) float64 {
	return x.v.degree(x.a, cy.epoch)
}

func (x *Input) bind(c *Controller) (Expr, error) {
	v, ok := c.vars[x.Variable]
	if !ok {
		return nil, fmt.Errorf("%w: variable %q in antecedent", ErrReference, x.Variable)
	}
	if v.Role != RoleInput {
		return nil, fmt.Errorf("%w: antecedent references %s variable %q", ErrReference, v.Role, v.Name)
	}
	a, ok := v.index[x.Adjective]
	if !ok {
		return nil, fmt.Errorf("%w: adjective %q of variable %q", ErrReference, x.Adjective, v.Name)
	}
	return &Input{Ref: x.Ref, v: v, a: a}, nil
}

func (x *Compound) String() string {
	return fmt.Sprintf("(%v %v %v)", x.Left, x.Op, x.Right)
}

func (x *Compound) eval(cy *cycle) float64 {
	l, r := x.Left.eval(cy), x.Right.eval(cy)
	if x.Op == OpOr {
		return cy.logic.Or.Conorm(l, r)
	}
	return cy.logic.And.Norm(l, r)
}

func (x *Compound) bind(c *Controller) (Expr, error) {
	if x.Op != OpAnd && x.Op != OpOr {
		return nil, fmt.Errorf("%w: invalid operator %v", ErrConfiguration, x.Op)
	}
	if x.Left == nil || x.Right == nil {
		return nil, fmt.Errorf("%w: %v expression with missing operand", ErrConfiguration, x.Op)
	}
	l, err := x.Left.bind(c)
	if err != nil {
		return nil, err
	}
	r, err := x.Right.bind(c)
	if err != nil {
		return nil, err
	}
	return &Compound{Op: x.Op, Left: l, Right: r}, nil
}

func (x *Not) String() string {
	return fmt.Sprintf("not %v", x.X)
}

func (x *Not) eval(cy *cycle) float64 {
	return cy.logic.Not.Negate(x.X.eval(cy))
}

func (x *Not) bind(c *Controller) (Expr, error) {
	if x.X == nil {
		return nil, fmt.Errorf("%w: negation with missing operand", ErrConfiguration)
	}
	y, err := x.X.bind(c)
	if err != nil {
		return nil, err
	}
	return &Not{X: y}, nil
}
