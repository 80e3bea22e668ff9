package integrators

import (
	"math"
	"math/rand"

	"github.com/san-kum/pathsim/internal/dynamo"
)

// Langevin is a BAOAB splitting integrator for underdamped Langevin dynamics.
// KT is the thermal energy and Gamma the friction coefficient (1/time).
// The noise stream comes from its own seeded source, so two instances built
// with the same seed produce identical trajectories.
type Langevin struct {
	KT    float64
	Gamma float64

	rng     *rand.Rand
	scratch dynamo.State
}

func NewLangevin(kT, gamma float64, seed int64) *Langevin {
	return &Langevin{
		KT:    kT,
		Gamma: gamma,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

func (l *Langevin) ensureScratch(n int) {
	if len(l.scratch) != n {
		l.scratch = make(dynamo.State, n)
	}
}

func (l *Langevin) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	half := n / 2
	l.ensureScratch(n)

	halfDt := 0.5 * dt
	c1 := math.Exp(-l.Gamma * dt)
	c2 := math.Sqrt(1-c1*c1) * math.Sqrt(l.KT/dynamo.MassOf(dyn))

	result := x.Clone()

	// B
	dx := dyn.Derive(result, t)
	for i := 0; i < half; i++ {
		result[half+i] += halfDt * dx[half+i]
	}
	// A
	for i := 0; i < half; i++ {
		result[i] += halfDt * result[half+i]
	}
	// O
	for i := 0; i < half; i++ {
		result[half+i] = c1*result[half+i] + c2*l.rng.NormFloat64()
	}
	// A
	for i := 0; i < half; i++ {
		result[i] += halfDt * result[half+i]
	}
	// B
	copy(l.scratch, result)
	dx = dyn.Derive(l.scratch, t+dt)
	for i := 0; i < half; i++ {
		result[half+i] += halfDt * dx[half+i]
	}

	return result
}
