package pendulum_test

import (
	"math"
	"testing"

	"example.com/fuzzyctl/core/config"
	"example.com/fuzzyctl/driver/pendulum"
)

func TestEquilibrium(t *testing.T) {
	p := pendulum.NewCartPole(0, 0)
	for i := 0; i < 100; i++ {
		p.Apply(nil)
	}
	if p.State != (pendulum.State{}) {
		t.Errorf("state after resting = %+v, want zero", p.State)
	}
	if math.Abs(p.Time-1) > 1e-12 {
		t.Errorf("time = %v, want 1", p.Time)
	}
}

func TestFallsWithoutControl(t *testing.T) {
	p := pendulum.NewCartPole(0.05, 0)
	for i := 0; i < 200 && !p.Fallen(); i++ {
		p.Step(0)
	}
	if !p.Fallen() {
		t.Errorf("uncontrolled pole did not fall, state %+v", p.State)
	}
}

func TestForceCorrectsLean(t *testing.T) {
	p := pendulum.NewCartPole(0.1, 0)
	q := pendulum.NewCartPole(0.1, 0)
	p.Step(0)
	q.Step(20)
	if !(q.State.Omega < p.State.Omega) {
		t.Errorf("positive force gave rate %v, unforced %v", q.State.Omega, p.State.Omega)
	}
	if !(q.State.V > 0) {
		t.Errorf("positive force gave cart velocity %v", q.State.V)
	}
}

func TestSmallAngleFrequency(t *testing.T) {
	// With the pole hanging down the linearised motion is a harmonic
	// oscillation; use a pole mass near zero so the cart does not move.
	p := &pendulum.CartPole{Length: 0.5, PoleMass: 1e-9, CartMass: 1, Dt: 1e-3,
		State: pendulum.State{Theta: math.Pi + 1e-3}}
	w := math.Sqrt(pendulum.Gravity / (4.0 / 3.0 * p.Length))
	period := 2 * math.Pi / w
	steps := int(math.Round(period / p.Dt))
	for i := 0; i < steps; i++ {
		p.Step(0)
	}
	if d := math.Abs(p.State.Theta - (math.Pi + 1e-3)); d > 1e-5 {
		t.Errorf("angle after one period deviates by %v", d)
	}
}

func TestFuzzyStabilization(t *testing.T) {
	ctrl, err := config.Pendulum().Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	p := pendulum.NewCartPole(math.Pi/8, 0)
	for i := 0; i < 300; i++ {
		out, err := ctrl.Infer(p.Signals())
		if err != nil {
			t.Fatalf("step %d: Infer failed: %v", i, err)
		}
		p.Apply(out)
		if p.Fallen() {
			t.Fatalf("pole fell at step %d, state %+v", i, p.State)
		}
	}
	if math.Abs(p.State.Theta) > 0.1 {
		t.Errorf("angle after 3s = %v, want |angle| < 0.1", p.State.Theta)
	}
}
