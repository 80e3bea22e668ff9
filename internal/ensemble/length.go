package ensemble

import (
	"fmt"

	"github.com/san-kum/pathsim/internal/trajectory"
)

// Length contains trajectories with Min <= len <= Max. Max < 0 is unbounded.
type Length struct {
	Min, Max int
}

// Exactly is the ensemble of trajectories with exactly n frames.
func Exactly(n int) Length { return Length{Min: n, Max: n} }

func (l Length) Contains(t trajectory.Trajectory) bool {
	n := t.Len()
	return n >= l.Min && (l.Max < 0 || n <= l.Max)
}

func (l Length) CanAppend(t trajectory.Trajectory) bool {
	return l.Max < 0 || t.Len() < l.Max
}

func (l Length) LengthBounds() (int, int) { return l.Min, l.Max }

func (l Length) String() string {
	if l.Max < 0 {
		return fmt.Sprintf("len >= %d", l.Min)
	}
	if l.Min == l.Max {
		return fmt.Sprintf("len = %d", l.Min)
	}
	return fmt.Sprintf("len in [%d, %d]", l.Min, l.Max)
}
