package analysis

import (
	"github.com/san-kum/pathsim/internal/ensemble"
	"github.com/san-kum/pathsim/internal/trajectory"
	"github.com/san-kum/pathsim/internal/volume"
)

// ContinuousSegments returns the maximal runs of consecutive frames inside v.
func ContinuousSegments(t trajectory.Trajectory, v volume.Volume) []trajectory.Trajectory {
	return ensemble.AllInX{V: v}.Split(t)
}

// ContinuousTimes is the duration of each continuous segment, counting
// every frame as frameDt.
func ContinuousTimes(t trajectory.Trajectory, v volume.Volume, frameDt float64) []float64 {
	return durations(ContinuousSegments(t, v), 0, frameDt)
}

// TransitionSegments returns every from->to crossing: a frame in from, any
// number of frames outside both, then a frame in to.
func TransitionSegments(t trajectory.Trajectory, from, to volume.Volume) []trajectory.Trajectory {
	return ensemble.Transition{From: from, To: to}.Split(t)
}

// TransitionDurations counts only the frames strictly between the two
// states, so an instantaneous hop has zero duration.
func TransitionDurations(t trajectory.Trajectory, from, to volume.Volume, frameDt float64) []float64 {
	return durations(TransitionSegments(t, from, to), 2, frameDt)
}

// LifetimeSegments returns, for each visit to state bracketed by frames in
// other, the frames from the first entry into state up to (not including)
// the return to other. Leaving state without reaching other does not end
// the visit.
func LifetimeSegments(t trajectory.Trajectory, state, other volume.Volume) []trajectory.Trajectory {
	var out []trajectory.Trajectory
	lastOther, entered := -1, -1
	for i, f := range t.Frames() {
		switch {
		case other.Contains(f):
			if lastOther >= 0 && entered >= 0 {
				out = append(out, t.Slice(entered, i))
			}
			lastOther, entered = i, -1
		case state.Contains(f):
			if lastOther >= 0 && entered < 0 {
				entered = i
			}
		}
	}
	return out
}

func Lifetimes(t trajectory.Trajectory, state, other volume.Volume, frameDt float64) []float64 {
	return durations(LifetimeSegments(t, state, other), 0, frameDt)
}

// FluxSegments splits t around state. in holds runs inside state entered
// from and left to the region outside both states; out holds excursions
// from state back to state that never touch other.
func FluxSegments(t trajectory.Trajectory, state, other volume.Volume) (in, out []trajectory.Trajectory) {
	const (
		inState = iota
		inOther
		neither
	)
	frames := t.Frames()
	kind := make([]int, len(frames))
	for i, f := range frames {
		switch {
		case state.Contains(f):
			kind[i] = inState
		case other.Contains(f):
			kind[i] = inOther
		default:
			kind[i] = neither
		}
	}

	for start := 0; start < len(kind); {
		end := start
		for end < len(kind) && kind[end] == kind[start] {
			end++
		}
		bounded := start > 0 && end < len(kind)
		switch {
		case !bounded:
		case kind[start] == inState && kind[start-1] == neither && kind[end] == neither:
			in = append(in, t.Slice(start, end))
		case kind[start] == neither && kind[start-1] == inState && kind[end] == inState:
			out = append(out, t.Slice(start, end))
		}
		start = end
	}
	return in, out
}

func durations(segs []trajectory.Trajectory, trim int, frameDt float64) []float64 {
	out := make([]float64, len(segs))
	for i, s := range segs {
		out[i] = float64(s.Len()-trim) * frameDt
	}
	return out
}
