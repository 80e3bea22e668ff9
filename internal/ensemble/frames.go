package ensemble

import (
	"fmt"

	"github.com/san-kum/pathsim/internal/trajectory"
	"github.com/san-kum/pathsim/internal/volume"
)

// AllInX contains non-empty trajectories whose every frame is in V.
type AllInX struct{ V volume.Volume }

func (a AllInX) Contains(t trajectory.Trajectory) bool {
	return t.Len() > 0 && all(t, a.V, true)
}

func (a AllInX) CanAppend(t trajectory.Trajectory) bool { return all(t, a.V, true) }
func (a AllInX) String() string                         { return fmt.Sprintf("x[t] in %s for all t", a.V) }

// Split returns the maximal runs of frames inside V.
func (a AllInX) Split(t trajectory.Trajectory) []trajectory.Trajectory {
	return runs(t, a.V, true)
}

// AllOutX contains non-empty trajectories with no frame in V.
type AllOutX struct{ V volume.Volume }

func (a AllOutX) Contains(t trajectory.Trajectory) bool {
	return t.Len() > 0 && all(t, a.V, false)
}

func (a AllOutX) CanAppend(t trajectory.Trajectory) bool { return all(t, a.V, false) }
func (a AllOutX) String() string                         { return fmt.Sprintf("x[t] in (not %s) for all t", a.V) }

func (a AllOutX) Split(t trajectory.Trajectory) []trajectory.Trajectory {
	return runs(t, a.V, false)
}

// PartInX contains trajectories with at least one frame in V.
type PartInX struct{ V volume.Volume }

func (p PartInX) Contains(t trajectory.Trajectory) bool {
	for i := 0; i < t.Len(); i++ {
		if p.V.Contains(t.At(i)) {
			return true
		}
	}
	return false
}

func (p PartInX) CanAppend(trajectory.Trajectory) bool { return true }
func (p PartInX) String() string                       { return fmt.Sprintf("exists t such that x[t] in %s", p.V) }

func all(t trajectory.Trajectory, v volume.Volume, in bool) bool {
	for i := 0; i < t.Len(); i++ {
		if v.Contains(t.At(i)) != in {
			return false
		}
	}
	return true
}

func runs(t trajectory.Trajectory, v volume.Volume, in bool) []trajectory.Trajectory {
	var out []trajectory.Trajectory
	start := -1
	for i := 0; i < t.Len(); i++ {
		if v.Contains(t.At(i)) == in {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, t.Slice(start, i))
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, t.Slice(start, t.Len()))
	}
	return out
}
