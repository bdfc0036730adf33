// Package fuzzy implements a Mamdani style fuzzy inference controller:
// linguistic input and output variables, a rule base of AND/OR/NOT
// antecedents and a swappable set of fuzzy operators and defuzzifier.
package fuzzy

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"example.com/fuzzyctl/base/floats"
	"example.com/fuzzyctl/base/zaplog"
	"example.com/fuzzyctl/core/defuzzify"
	"example.com/fuzzyctl/core/membership"
	"example.com/fuzzyctl/core/norms"
)

// Logic is the set of operators shared by every rule and output variable of a
// controller.
type Logic struct {
	And         norms.Norm
	Or          norms.Conorm
	Not         norms.Negation
	Defuzzifier defuzzify.Strategy
}

type Controller struct {
	mu         sync.Mutex
	log        *zap.Logger
	logic      *Logic
	resolution int

	vars     map[string]*Variable
	order    []*Variable
	inputs   []*Variable
	outputs  []*Variable
	rules    []*Rule
	ruleKeys map[string]struct{}
	epoch    uint64
}

type Option func(c *Controller)

func WithNorm(n norms.Norm) Option {
	return func(c *Controller) { c.logic.And = n }
}

func WithConorm(n norms.Conorm) Option {
	return func(c *Controller) { c.logic.Or = n }
}

func WithNegation(n norms.Negation) Option {
	return func(c *Controller) { c.logic.Not = n }
}

func WithDefuzzifier(s defuzzify.Strategy) Option {
	return func(c *Controller) { c.logic.Defuzzifier = s }
}

// WithResolution sets the number of samples output variables are
// defuzzified over.
func WithResolution(n int) Option {
	return func(c *Controller) { c.resolution = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// NewController returns an empty controller using Min, Max, Complement and
// COG unless configured otherwise.
func NewController(opts ...Option) (*Controller, error) {
	c := &Controller{
		log: zaplog.Logger(),
		logic: &Logic{
			And:         norms.Min{},
			Or:          norms.Max{},
			Not:         norms.Complement{},
			Defuzzifier: defuzzify.COG{},
		},
		resolution: defuzzify.DefaultSamples,
		vars:       make(map[string]*Variable),
		ruleKeys:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		return nil, fmt.Errorf("%w: nil logger", ErrConfiguration)
	}
	if c.logic.And == nil || c.logic.Or == nil || c.logic.Not == nil || c.logic.Defuzzifier == nil {
		return nil, fmt.Errorf("%w: nil operator", ErrConfiguration)
	}
	if c.resolution < 2 {
		return nil, fmt.Errorf("%w: resolution %d, need at least 2 samples", ErrConfiguration, c.resolution)
	}
	return c, nil
}

func (c *Controller) AddInput(name string, min, max float64) (*Variable, error) {
	return c.addVariable(name, RoleInput, min, max)
}

func (c *Controller) AddOutput(name string, min, max float64) (*Variable, error) {
	return c.addVariable(name, RoleOutput, min, max)
}

func (c *Controller) addVariable(name string, role Role, min, max float64) (*Variable, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name == "" || strings.ContainsAny(name, ". \t") {
		return nil, fmt.Errorf("%w: invalid variable name %q", ErrConfiguration, name)
	}
	if _, ok := c.vars[name]; ok {
		return nil, fmt.Errorf("%w: duplicate variable %q", ErrConfiguration, name)
	}
	if math.IsNaN(min) || math.IsInf(min, 0) || math.IsNaN(max) || math.IsInf(max, 0) || !(min < max) {
		return nil, fmt.Errorf("%w: variable %q: invalid domain [%v, %v]", ErrConfiguration, name, min, max)
	}
	v := &Variable{
		Name:  name,
		Role:  role,
		Min:   min,
		Max:   max,
		c:     c,
		index: make(map[string]*Adjective),
	}
	c.vars[name] = v
	c.order = append(c.order, v)
	if role == RoleInput {
		c.inputs = append(c.inputs, v)
	} else {
		c.outputs = append(c.outputs, v)
	}
	c.log.Debug("variable added", zap.String("name", name), zap.Stringer("role", role),
		zap.Float64("min", min), zap.Float64("max", max))
	return v, nil
}

// AddRule adds the rule "if a[0] and a[1] then consequent".
func (c *Controller) AddRule(antecedent [2]Ref, consequent Ref) (*Rule, error) {
	x := And(
		Is(antecedent[0].Variable, antecedent[0].Adjective),
		Is(antecedent[1].Variable, antecedent[1].Adjective))
	return c.AddExprRule(x, consequent)
}

func (c *Controller) AddExprRule(antecedent Expr, consequent Ref) (*Rule, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if antecedent == nil {
		return nil, fmt.Errorf("%w: rule without antecedent", ErrConfiguration)
	}
	r, err := c.prepare(antecedent, consequent, nil)
	if err != nil {
		return nil, err
	}
	c.commit([]*Rule{r})
	return r, nil
}

// AddTable adds one rule "if row is rows[i] and col is cols[j] then
// table[i][j]" per non-empty cell, in row-major order. Either all rules of
// the table are added or none.
func (c *Controller) AddTable(rows, cols []Ref, table [][]Ref) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(table) != len(rows) {
		return fmt.Errorf("%w: rule table has %d rows, want %d", ErrConfiguration, len(table), len(rows))
	}
	for i, row := range table {
		if len(row) != len(cols) {
			return fmt.Errorf("%w: rule table row %d has %d cells, want %d",
				ErrConfiguration, i, len(row), len(cols))
		}
	}
	var rs []*Rule
	pending := make(map[string]struct{})
	for i, row := range table {
		for j, cell := range row {
			if cell.IsZero() {
				continue
			}
			x := And(Is(rows[i].Variable, rows[i].Adjective), Is(cols[j].Variable, cols[j].Adjective))
			r, err := c.prepare(x, cell, pending)
			if err != nil {
				return fmt.Errorf("rule table cell (%d, %d): %w", i, j, err)
			}
			r.ID += len(rs)
			rs = append(rs, r)
		}
	}
	c.commit(rs)
	return nil
}

// prepare binds a rule without adding it. pending holds the keys of rules
// prepared for the same commit.
func (c *Controller) prepare(antecedent Expr, consequent Ref, pending map[string]struct{}) (*Rule, error) {
	x, err := antecedent.bind(c)
	if err != nil {
		return nil, err
	}
	v, ok := c.vars[consequent.Variable]
	if !ok {
		return nil, fmt.Errorf("%w: variable %q in consequent", ErrReference, consequent.Variable)
	}
	if v.Role != RoleOutput {
		return nil, fmt.Errorf("%w: consequent references %s variable %q", ErrReference, v.Role, v.Name)
	}
	a, ok := v.index[consequent.Adjective]
	if !ok {
		return nil, fmt.Errorf("%w: adjective %q of variable %q", ErrReference, consequent.Adjective, v.Name)
	}
	r := &Rule{
		ID:         len(c.rules) + 1,
		Antecedent: x,
		Consequent: consequent,
		target:     a,
	}
	k := r.key()
	if _, ok := c.ruleKeys[k]; ok {
		return nil, fmt.Errorf("%w: duplicate rule %v", ErrConfiguration, r)
	}
	if pending != nil {
		if _, ok := pending[k]; ok {
			return nil, fmt.Errorf("%w: duplicate rule %v", ErrConfiguration, r)
		}
		pending[k] = struct{}{}
	}
	return r, nil
}

func (c *Controller) commit(rs []*Rule) {
	for _, r := range rs {
		c.rules = append(c.rules, r)
		c.ruleKeys[r.key()] = struct{}{}
		c.log.Debug("rule added", zap.Stringer("rule", r))
	}
}

// SetNorm replaces the AND operator used by all rules.
func (c *Controller) SetNorm(n norms.Norm) {
	if n == nil {
		panic("fuzzy: nil norm")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logic.And = n
	c.log.Debug("norm changed", zap.Any("norm", n))
}

// SetConorm replaces the OR operator used by all rules and by aggregation.
func (c *Controller) SetConorm(n norms.Conorm) {
	if n == nil {
		panic("fuzzy: nil conorm")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logic.Or = n
	c.log.Debug("conorm changed", zap.Any("conorm", n))
}

func (c *Controller) SetNegation(n norms.Negation) {
	if n == nil {
		panic("fuzzy: nil negation")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logic.Not = n
	c.log.Debug("negation changed", zap.Any("negation", n))
}

// SetDefuzzify replaces the defuzzification strategy of all output
// variables.
func (c *Controller) SetDefuzzify(s defuzzify.Strategy) {
	if s == nil {
		panic("fuzzy: nil defuzzifier")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logic.Defuzzifier = s
	c.log.Debug("defuzzifier changed", zap.Any("defuzzifier", s))
}

// Infer runs one inference cycle for the given crisp inputs and returns the
// crisp value of each requested output, or of all outputs if none are
// requested. Inputs not present in the map keep their previous value.
//
// Outputs whose aggregated set is empty are left out of the result and
// reported as *UndefinedOutputError; the remaining outputs are still
// returned.
func (c *Controller) Infer(inputs map[string]float64, outputs ...string) (map[string]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name, x := range inputs {
		v, ok := c.vars[name]
		if !ok || v.Role != RoleInput {
			return nil, fmt.Errorf("%w: input %q", ErrReference, name)
		}
		if math.IsNaN(x) {
			return nil, fmt.Errorf("%w: input %q is NaN", ErrConfiguration, name)
		}
	}
	targets := c.outputs
	if len(outputs) != 0 {
		targets = make([]*Variable, len(outputs))
		for i, name := range outputs {
			v, ok := c.vars[name]
			if !ok || v.Role != RoleOutput {
				return nil, fmt.Errorf("%w: output %q", ErrReference, name)
			}
			targets[i] = v
		}
	}

	for name, x := range inputs {
		c.vars[name].value = x
	}
	c.epoch++
	for _, v := range c.outputs {
		for _, a := range v.adjectives {
			a.strength = 0
		}
	}
	cy := &cycle{epoch: c.epoch, logic: c.logic}
	for _, r := range c.rules {
		r.fire(cy)
	}

	res := make(map[string]float64, len(targets))
	var errs []error
	for _, v := range targets {
		x, err := c.logic.Defuzzifier.Defuzzify(v.universe(c.resolution), v.sets(), c.logic.Or)
		if err != nil {
			if errors.Is(err, defuzzify.ErrUndefinedOutput) {
				errs = append(errs, &UndefinedOutputError{Variable: v.Name})
				continue
			}
			return nil, fmt.Errorf("output %q: %w", v.Name, err)
		}
		res[v.Name] = x
	}

	if ce := c.log.Check(zap.DebugLevel, "inference cycle"); ce != nil {
		ce.Write(zap.Uint64("epoch", c.epoch), zap.Any("inputs", inputs), zap.Any("outputs", res),
			zap.Int("undefined", len(errs)))
	}
	return res, errors.Join(errs...)
}

// Logic returns a copy of the operators currently in use.
func (c *Controller) Logic() Logic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.logic
}

func (c *Controller) Resolution() int {
	return c.resolution
}

func (c *Controller) Variable(name string) (*Variable, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vars[name]
	return v, ok
}

// Variables returns all variables in the order they were added.
func (c *Controller) Variables() []*Variable {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Variable(nil), c.order...)
}

func names(vs []*Variable) []string {
	ns := make([]string, len(vs))
	for i, v := range vs {
		ns[i] = v.Name
	}
	return ns
}

func (c *Controller) Inputs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return names(c.inputs)
}

func (c *Controller) Outputs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return names(c.outputs)
}

func (c *Controller) Rules() []*Rule {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Rule(nil), c.rules...)
}

// Curve is a sampled membership function.
type Curve struct {
	Adjective string
	X, Y      []float64
}

// Curves samples every adjective of a variable at n points across its
// domain.
func (c *Controller) Curves(variable string, n int) ([]Curve, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vars[variable]
	if !ok {
		return nil, fmt.Errorf("%w: variable %q", ErrReference, variable)
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: %d samples, need at least 2", ErrConfiguration, n)
	}
	xs := floats.Linspace(v.Min, v.Max, n)
	cs := make([]Curve, len(v.adjectives))
	for i, a := range v.adjectives {
		cs[i] = Curve{Adjective: a.Name, X: slices.Clone(xs), Y: membership.Sample(a.MF, xs)}
	}
	return cs, nil
}

// Aggregated samples the aggregated fuzzy set an output variable was
// defuzzified from in the last inference cycle.
func (c *Controller) Aggregated(output string) (xs, ys []float64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, err := c.output(output)
	if err != nil {
		return nil, nil, err
	}
	return defuzzify.Aggregate(v.universe(c.resolution), v.sets(), c.logic.Or)
}

// Strengths returns the firing strength accumulated for each adjective of an
// output variable in the last inference cycle.
func (c *Controller) Strengths(output string) (map[string]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, err := c.output(output)
	if err != nil {
		return nil, err
	}
	m := make(map[string]float64, len(v.adjectives))
	for _, a := range v.adjectives {
		m[a.Name] = a.strength
	}
	return m, nil
}

// Degrees returns the membership degree of an input variable's current value
// in each of its adjectives.
func (c *Controller) Degrees(input string) (map[string]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vars[input]
	if !ok || v.Role != RoleInput {
		return nil, fmt.Errorf("%w: input %q", ErrReference, input)
	}
	m := make(map[string]float64, len(v.adjectives))
	for _, a := range v.adjectives {
		m[a.Name] = a.MF.Evaluate(v.value)
	}
	return m, nil
}

func (c *Controller) output(name string) (*Variable, error) {
	v, ok := c.vars[name]
	if !ok || v.Role != RoleOutput {
		return nil, fmt.Errorf("%w: output %q", ErrReference, name)
	}
	return v, nil
}
