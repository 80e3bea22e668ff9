package integrators

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/pathsim/internal/dynamo"
)

type harmonic struct{}

func (h *harmonic) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (h *harmonic) StateDim() int { return 2 }

func (h *harmonic) Energy(x dynamo.State) float64 {
	return 0.5*x[0]*x[0] + 0.5*x[1]*x[1]
}

func TestVelocityVerletAccuracy(t *testing.T) {
	dyn := &harmonic{}
	integ := NewVelocityVerlet()

	x := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}
	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestVelocityVerletEnergyConservation(t *testing.T) {
	dyn := &harmonic{}
	integ := NewVelocityVerlet()

	x := dynamo.State{1.0, 0.0}
	e0 := dyn.Energy(x)
	for i := 0; i < 10000; i++ {
		x = integ.Step(dyn, x, 0, 0.01)
	}

	if drift := math.Abs(dyn.Energy(x)-e0) / e0; drift > 1e-3 {
		t.Errorf("energy drift too large: %.6f", drift)
	}
}

func TestLangevinReproducible(t *testing.T) {
	dyn := &harmonic{}
	a := NewLangevin(1.0, 1.0, 42)
	b := NewLangevin(1.0, 1.0, 42)
	c := NewLangevin(1.0, 1.0, 43)

	xa := dynamo.State{1.0, 0.0}
	xb := xa.Clone()
	xc := xa.Clone()
	for i := 0; i < 100; i++ {
		xa = a.Step(dyn, xa, 0, 0.01)
		xb = b.Step(dyn, xb, 0, 0.01)
		xc = c.Step(dyn, xc, 0, 0.01)
	}

	if !xa.Equal(xb) {
		t.Errorf("same seed diverged: %v vs %v", xa, xb)
	}
	if xa.Equal(xc) {
		t.Error("different seeds produced identical trajectories")
	}
}

func TestLangevinZeroFrictionIsVerlet(t *testing.T) {
	dyn := &harmonic{}
	l := NewLangevin(1.0, 0.0, 1)
	v := NewVelocityVerlet()

	xl := dynamo.State{1.0, 0.0}
	xv := xl.Clone()
	for i := 0; i < 50; i++ {
		xl = l.Step(dyn, xl, 0, 0.01)
		xv = v.Step(dyn, xv, 0, 0.01)
	}

	if floats.Distance(xl, xv, 2) > 1e-9 {
		t.Errorf("frictionless Langevin should match Verlet: %v vs %v", xl, xv)
	}
}

func TestLangevinEquipartition(t *testing.T) {
	dyn := &harmonic{}
	kT := 0.5
	integ := NewLangevin(kT, 1.0, 7)

	x := dynamo.State{0, 0}
	sum := 0.0
	n := 400000
	for i := 0; i < n; i++ {
		x = integ.Step(dyn, x, 0, 0.01)
		sum += x[0] * x[0]
	}

	// <x^2> = kT / k for a harmonic well with k = 1
	mean := sum / float64(n)
	if math.Abs(mean-kT)/kT > 0.1 {
		t.Errorf("expected <x^2> ~ %.3f, got %.3f", kT, mean)
	}
}
