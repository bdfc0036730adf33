package config

import (
	"fmt"
	"strings"

	"example.com/fuzzyctl/core/defuzzify"
	"example.com/fuzzyctl/core/fuzzy"
	"example.com/fuzzyctl/core/membership"
	"example.com/fuzzyctl/core/norms"
)

const (
	PartitionUniform   = "uniform"
	PartitionSaturated = "saturated"
)

// Options returns the controller options selected by l.
func (l Logic) Options() ([]fuzzy.Option, error) {
	nk := norms.Kind(l.Norm)
	if nk == "" {
		nk = norms.KindMin
	}
	n, err := norms.NewNorm(nk)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fuzzy.ErrConfiguration, err)
	}
	ck := norms.Kind(l.Conorm)
	if ck == "" {
		ck, err = norms.Dual(nk)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", fuzzy.ErrConfiguration, err)
		}
	}
	c, err := norms.NewConorm(ck)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fuzzy.ErrConfiguration, err)
	}
	gk := norms.Kind(l.Negation)
	if gk == "" {
		gk = norms.KindComplement
	}
	g, err := norms.NewNegation(gk)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fuzzy.ErrConfiguration, err)
	}
	dk := defuzzify.Kind(l.Defuzzifier)
	if dk == "" {
		dk = defuzzify.KindCOG
	}
	d, err := defuzzify.New(dk)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fuzzy.ErrConfiguration, err)
	}
	opts := []fuzzy.Option{
		fuzzy.WithNorm(n),
		fuzzy.WithConorm(c),
		fuzzy.WithNegation(g),
		fuzzy.WithDefuzzifier(d),
	}
	if l.Resolution != 0 {
		opts = append(opts, fuzzy.WithResolution(l.Resolution))
	}
	return opts, nil
}

// Build creates the controller described by cfg. opts are applied after the
// options derived from cfg.Logic.
func (cfg *Config) Build(opts ...fuzzy.Option) (*fuzzy.Controller, error) {
	lopts, err := cfg.Logic.Options()
	if err != nil {
		return nil, err
	}
	c, err := fuzzy.NewController(append(lopts, opts...)...)
	if err != nil {
		return nil, err
	}
	for _, v := range cfg.Inputs {
		fv, err := c.AddInput(v.Name, v.Min, v.Max)
		if err != nil {
			return nil, err
		}
		if err := v.addAdjectives(fv); err != nil {
			return nil, err
		}
	}
	for _, v := range cfg.Outputs {
		fv, err := c.AddOutput(v.Name, v.Min, v.Max)
		if err != nil {
			return nil, err
		}
		if err := v.addAdjectives(fv); err != nil {
			return nil, err
		}
	}
	for i, t := range cfg.Tables {
		if err := t.add(c); err != nil {
			return nil, fmt.Errorf("table %d: %w", i, err)
		}
	}
	for i, r := range cfg.Rules {
		if err := r.add(c); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return c, nil
}

func (v Variable) addAdjectives(fv *fuzzy.Variable) error {
	if v.Partition != "" && len(v.Sets) != 0 {
		return fmt.Errorf("%w: variable %q has both a partition and explicit sets",
			fuzzy.ErrConfiguration, v.Name)
	}
	if len(v.Sets) != 0 {
		for _, s := range v.Sets {
			pts := make([]membership.Point, len(s.Points))
			for i, p := range s.Points {
				pts[i] = membership.Point{X: p.X, Y: p.Y}
			}
			mf, err := membership.NewPolygon(pts...)
			if err != nil {
				return fmt.Errorf("%w: variable %q, set %q: %w", fuzzy.ErrConfiguration, v.Name, s.Name, err)
			}
			if _, err := fv.Add(s.Name, mf); err != nil {
				return err
			}
		}
		return nil
	}

	var (
		mfs []*membership.Polygon
		err error
	)
	switch v.Partition {
	case PartitionUniform:
		mfs, err = membership.Uniform(v.Min, v.Max, len(v.Adjectives))
	case PartitionSaturated:
		mfs, err = membership.Saturated(v.Min, v.Max, len(v.Adjectives))
	default:
		return fmt.Errorf("%w: variable %q: unknown partition %q", fuzzy.ErrConfiguration, v.Name, v.Partition)
	}
	if err != nil {
		return fmt.Errorf("%w: variable %q: %w", fuzzy.ErrConfiguration, v.Name, err)
	}
	return fv.AddPartition(v.Adjectives, mfs)
}

func (t Table) add(c *fuzzy.Controller) error {
	rows, ok := c.Variable(t.Rows)
	if !ok {
		return fmt.Errorf("%w: table rows %q", fuzzy.ErrReference, t.Rows)
	}
	cols, ok := c.Variable(t.Columns)
	if !ok {
		return fmt.Errorf("%w: table columns %q", fuzzy.ErrReference, t.Columns)
	}
	cells := make([][]fuzzy.Ref, len(t.Cells))
	for i, row := range t.Cells {
		cells[i] = make([]fuzzy.Ref, len(row))
		for j, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" || cell == "-" {
				continue
			}
			cells[i][j] = fuzzy.Ref{Variable: t.Output, Adjective: cell}
		}
	}
	return c.AddTable(rows.Refs(), cols.Refs(), cells)
}

func (r Rule) add(c *fuzzy.Controller) error {
	if (len(r.All) == 0) == (len(r.Any) == 0) {
		return fmt.Errorf("%w: rule needs exactly one of all and any", fuzzy.ErrConfiguration)
	}
	then, err := fuzzy.ParseRef(r.Then)
	if err != nil {
		return err
	}
	terms, join := r.All, func(l, r fuzzy.Expr) fuzzy.Expr { return fuzzy.And(l, r) }
	if len(r.Any) != 0 {
		terms, join = r.Any, func(l, r fuzzy.Expr) fuzzy.Expr { return fuzzy.Or(l, r) }
	}
	var x fuzzy.Expr
	for _, s := range terms {
		t, err := parseTerm(s)
		if err != nil {
			return err
		}
		if x == nil {
			x = t
		} else {
			x = join(x, t)
		}
	}
	_, err = c.AddExprRule(x, then)
	return err
}

func parseTerm(s string) (fuzzy.Expr, error) {
	s = strings.TrimSpace(s)
	neg := false
	if rest, ok := strings.CutPrefix(s, "not "); ok {
		s, neg = strings.TrimSpace(rest), true
	}
	ref, err := fuzzy.ParseRef(s)
	if err != nil {
		return nil, err
	}
	var x fuzzy.Expr = fuzzy.Is(ref.Variable, ref.Adjective)
	if neg {
		x = fuzzy.Negate(x)
	}
	return x, nil
}
