// Package pendulum simulates an inverted pendulum on a cart.
package pendulum

import (
	"math"
)

const (
	Gravity = 9.81

	DefaultLength   = 0.5
	DefaultPoleMass = 0.1
	DefaultCartMass = 0.5
	DefaultDt       = 0.01

	SignalAngle = "angle"
	SignalRate  = "rate"
	ActionForce = "force"
)

// State is the cart position and velocity and the pole angle from upright
// and its angular rate. Angles are in radians, positive angles lean towards
// positive x.
type State struct {
	X, V         float64
	Theta, Omega float64
}

// CartPole integrates the frictionless cart-pole dynamics with a fourth
// order Runge-Kutta step of Dt seconds per applied force. Length is the
// distance from the pivot to the pole's center of mass.
type CartPole struct {
	Length   float64
	PoleMass float64
	CartMass float64
	Dt       float64

	State State
	Time  float64
	Force float64
}

func NewCartPole(theta, omega float64) *CartPole {
	return &CartPole{
		Length:   DefaultLength,
		PoleMass: DefaultPoleMass,
		CartMass: DefaultCartMass,
		Dt:       DefaultDt,
		State:    State{Theta: theta, Omega: omega},
	}
}

func (p *CartPole) Signals() map[string]float64 {
	return map[string]float64{
		SignalAngle: p.State.Theta,
		SignalRate:  p.State.Omega,
	}
}

// Apply pushes the cart with outputs["force"] newtons for one time step.
func (p *CartPole) Apply(outputs map[string]float64) {
	p.Step(outputs[ActionForce])
}

func (p *CartPole) Step(f float64) {
	if p.Dt <= 0 {
		panic("invalid time step")
	}
	h := p.Dt
	s := p.State
	k1 := p.derivative(s, f)
	k2 := p.derivative(s.add(k1, h/2), f)
	k3 := p.derivative(s.add(k2, h/2), f)
	k4 := p.derivative(s.add(k3, h), f)
	p.State = State{
		X:     s.X + h/6*(k1.X+2*k2.X+2*k3.X+k4.X),
		V:     s.V + h/6*(k1.V+2*k2.V+2*k3.V+k4.V),
		Theta: s.Theta + h/6*(k1.Theta+2*k2.Theta+2*k3.Theta+k4.Theta),
		Omega: s.Omega + h/6*(k1.Omega+2*k2.Omega+2*k3.Omega+k4.Omega),
	}
	p.Time += h
	p.Force = f
}

// Fallen reports whether the pole has tipped past horizontal.
func (p *CartPole) Fallen() bool {
	return math.Abs(p.State.Theta) >= math.Pi/2
}

func (s State) add(d State, h float64) State {
	return State{
		X:     s.X + h*d.X,
		V:     s.V + h*d.V,
		Theta: s.Theta + h*d.Theta,
		Omega: s.Omega + h*d.Omega,
	}
}

// derivative returns the time derivative of s under force f.
func (p *CartPole) derivative(s State, f float64) State {
	sin, cos := math.Sincos(s.Theta)
	m, l := p.PoleMass, p.Length
	total := p.CartMass + m
	tmp := (f + m*l*s.Omega*s.Omega*sin) / total
	alpha := (Gravity*sin - cos*tmp) / (l * (4.0/3.0 - m*cos*cos/total))
	acc := tmp - m*l*alpha*cos/total
	return State{X: s.V, V: acc, Theta: s.Omega, Omega: alpha}
}
