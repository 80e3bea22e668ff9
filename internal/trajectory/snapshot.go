package trajectory

import "github.com/san-kum/pathsim/internal/dynamo"

// Snapshot is one frame of a trajectory: a phase-space point and the
// simulation time it was recorded at.
type Snapshot struct {
	State dynamo.State
	Time  float64
}

func NewSnapshot(state dynamo.State, t float64) Snapshot {
	return Snapshot{State: state.Clone(), Time: t}
}

// Reversed returns a copy with negated velocities. Applied twice it yields
// a snapshot equal to the original.
func (s Snapshot) Reversed() Snapshot {
	r := Snapshot{State: s.State.Clone(), Time: s.Time}
	v := r.State.Velocities()
	for i := range v {
		v[i] = -v[i]
	}
	return r
}

func (s Snapshot) Equal(other Snapshot) bool {
	return s.Time == other.Time && s.State.Equal(other.State)
}

// Positions returns a copy of the position half of the state.
func (s Snapshot) Positions() []float64 {
	p := s.State.Positions()
	out := make([]float64, len(p))
	copy(out, p)
	return out
}
