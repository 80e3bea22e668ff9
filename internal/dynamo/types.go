package dynamo

import (
	"math"
)

// State is a phase-space point laid out as positions followed by velocities.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Positions returns the first half of the state. The slice aliases s.
func (s State) Positions() []float64 { return s[:len(s)/2] }

// Velocities returns the second half of the state. The slice aliases s.
func (s State) Velocities() []float64 { return s[len(s)/2:] }

// Equal reports exact element-wise equality.
func (s State) Equal(other State) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// System is dX/dt = f(X, t). For mechanical systems the velocity half of the
// derivative holds accelerations.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

type Hamiltonian interface {
	Energy(x State) float64
}

// Masser is implemented by systems whose particles share a single mass.
type Masser interface {
	ParticleMass() float64
}

type Integrator interface {
	Step(dyn System, x State, t float64, dt float64) State
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// MassOf returns the particle mass of dyn, or 1 if it does not declare one.
func MassOf(dyn System) float64 {
	if m, ok := dyn.(Masser); ok && m.ParticleMass() > 0 {
		return m.ParticleMass()
	}
	return 1.0
}
