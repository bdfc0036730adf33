package fuzzy

import (
	"fmt"
	"strings"

	"example.com/fuzzyctl/core/defuzzify"
	"example.com/fuzzyctl/core/membership"
)

type Role int

const (
	RoleInput Role = iota
	RoleOutput
)

func (r Role) String() string {
	switch r {
	case RoleInput:
		return "input"
	case RoleOutput:
		return "output"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Adjective is a named fuzzy category of a variable.
type Adjective struct {
	Name string
	MF   membership.Function

	epoch    uint64
	degree   float64
	strength float64
}

// Variable is a linguistic variable. Input variables carry the crisp value
// of the current cycle, output variables the firing strength accumulated for
// each of their adjectives.
type Variable struct {
	Name     string
	Role     Role
	Min, Max float64

	c          *Controller
	adjectives []*Adjective
	index      map[string]*Adjective
	value      float64
}

// Add appends an adjective. Names must be unique within the variable.
func (v *Variable) Add(name string, mf membership.Function) (*Adjective, error) {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	return v.add(name, mf)
}

func (v *Variable) add(name string, mf membership.Function) (*Adjective, error) {
	if name == "" || strings.ContainsAny(name, ". \t") {
		return nil, fmt.Errorf("%w: variable %q: invalid adjective name %q", ErrConfiguration, v.Name, name)
	}
	if mf == nil {
		return nil, fmt.Errorf("%w: variable %q: adjective %q has no membership function",
			ErrConfiguration, v.Name, name)
	}
	if _, ok := v.index[name]; ok {
		return nil, fmt.Errorf("%w: variable %q: duplicate adjective %q", ErrConfiguration, v.Name, name)
	}
	a := &Adjective{Name: name, MF: mf}
	v.adjectives = append(v.adjectives, a)
	v.index[name] = a
	return a, nil
}

// AddPartition adds one adjective per membership function, in order.
func (v *Variable) AddPartition(names []string, mfs []*membership.Polygon) error {
	if len(names) != len(mfs) {
		return fmt.Errorf("%w: variable %q: %d names for %d membership functions",
			ErrConfiguration, v.Name, len(names), len(mfs))
	}
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	for i, name := range names {
		if _, err := v.add(name, mfs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (v *Variable) Adjective(name string) (*Adjective, bool) {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	a, ok := v.index[name]
	return a, ok
}

// Adjectives returns the adjectives in insertion order.
func (v *Variable) Adjectives() []*Adjective {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	return append([]*Adjective(nil), v.adjectives...)
}

// Refs returns references to all adjectives in insertion order.
func (v *Variable) Refs() []Ref {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	refs := make([]Ref, len(v.adjectives))
	for i, a := range v.adjectives {
		refs[i] = Ref{Variable: v.Name, Adjective: a.Name}
	}
	return refs
}

func (v *Variable) universe(samples int) defuzzify.Universe {
	return defuzzify.Universe{Min: v.Min, Max: v.Max, Samples: samples}
}

func (v *Variable) sets() []defuzzify.Set {
	sets := make([]defuzzify.Set, len(v.adjectives))
	for i, a := range v.adjectives {
		sets[i] = defuzzify.Set{MF: a.MF, Strength: a.strength}
	}
	return sets
}

// degree returns the membership degree of the variable's current value in a,
// computed at most once per inference epoch.
func (v *Variable) degree(a *Adjective, epoch uint64) float64 {
	if a.epoch != epoch {
		a.degree = a.MF.Evaluate(v.value)
		a.epoch = epoch
	}
	return a.degree
}

// Ref names an adjective of a variable. The zero Ref marks an empty rule
// table cell.
type Ref struct {
	Variable  string
	Adjective string
}

func (r Ref) IsZero() bool { return r == Ref{} }

func (r Ref) String() string { return r.Variable + "." + r.Adjective }

// ParseRef parses the "variable.adjective" form produced by Ref.String.
func ParseRef(s string) (Ref, error) {
	v, a, ok := strings.Cut(s, ".")
	if !ok || v == "" || a == "" || strings.Contains(a, ".") {
		return Ref{}, fmt.Errorf("%w: malformed adjective reference %q", ErrConfiguration, s)
	}
	return Ref{Variable: v, Adjective: a}, nil
}
