package trajectory

import "fmt"

// Trajectory is an ordered, immutable sequence of snapshots. Slices share the
// backing array of their parent, which is safe because nothing mutates it.
type Trajectory struct {
	frames []Snapshot
}

// New builds a trajectory from copies of the given frames.
func New(frames ...Snapshot) Trajectory {
	fs := make([]Snapshot, len(frames))
	for i, f := range frames {
		fs[i] = NewSnapshot(f.State, f.Time)
	}
	return Trajectory{frames: fs}
}

// Wrap adopts frames without copying. The caller must not modify them
// afterwards, and may only fill the spare capacity behind them by appending.
func Wrap(frames []Snapshot) Trajectory {
	return Trajectory{frames: frames}
}

func (t Trajectory) Len() int      { return len(t.frames) }
func (t Trajectory) IsEmpty() bool { return len(t.frames) == 0 }

// At returns the frame at index i; negative indices count from the end.
// It panics when i is out of range, like slice indexing.
func (t Trajectory) At(i int) Snapshot {
	j := i
	if j < 0 {
		j += len(t.frames)
	}
	if j < 0 || j >= len(t.frames) {
		panic(fmt.Sprintf("trajectory: index %d out of range [%d:%d]", i, -len(t.frames), len(t.frames)))
	}
	return t.frames[j]
}

func (t Trajectory) First() Snapshot { return t.At(0) }
func (t Trajectory) Last() Snapshot  { return t.At(-1) }

// Slice returns frames [start, end). Negative bounds count from the end and
// out-of-range bounds are clamped, so Slice(0, -1) drops the last frame and
// Slice(1, t.Len()) drops the first.
func (t Trajectory) Slice(start, end int) Trajectory {
	n := len(t.frames)
	start = clamp(start, n)
	end = clamp(end, n)
	if start >= end {
		return Trajectory{}
	}
	return Trajectory{frames: t.frames[start:end:end]}
}

func clamp(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// Concat joins t and other. When t's last frame equals other's first frame
// the shared frame appears once in the result.
func (t Trajectory) Concat(other Trajectory) Trajectory {
	skip := 0
	if !t.IsEmpty() && !other.IsEmpty() && t.Last().Equal(other.First()) {
		skip = 1
	}
	frames := make([]Snapshot, 0, len(t.frames)+len(other.frames)-skip)
	frames = append(frames, t.frames...)
	frames = append(frames, other.frames[skip:]...)
	return Trajectory{frames: frames}
}

// Grow returns t with s appended. When the backing array already holds s
// right after t, as it does for a prefix of a longer trajectory, the result
// shares it; otherwise the frames are copied.
func (t Trajectory) Grow(s Snapshot) Trajectory {
	n := len(t.frames)
	if n < cap(t.frames) && t.frames[:n+1][n].Equal(s) {
		return Trajectory{frames: t.frames[:n+1]}
	}
	frames := make([]Snapshot, n, n+1)
	copy(frames, t.frames)
	return Trajectory{frames: append(frames, s)}
}

// Join concatenates the parts as-is, with no boundary de-duplication.
func Join(parts ...Trajectory) Trajectory {
	n := 0
	for _, p := range parts {
		n += len(p.frames)
	}
	frames := make([]Snapshot, 0, n)
	for _, p := range parts {
		frames = append(frames, p.frames...)
	}
	return Trajectory{frames: frames}
}

// Reversed returns the time-reversed trajectory: frames in reverse order,
// each with negated velocities.
func (t Trajectory) Reversed() Trajectory {
	n := len(t.frames)
	frames := make([]Snapshot, n)
	for i, f := range t.frames {
		frames[n-1-i] = f.Reversed()
	}
	return Trajectory{frames: frames}
}

// Frames returns a copy of the frame slice.
func (t Trajectory) Frames() []Snapshot {
	out := make([]Snapshot, len(t.frames))
	copy(out, t.frames)
	return out
}

func (t Trajectory) Equal(other Trajectory) bool {
	if len(t.frames) != len(other.frames) {
		return false
	}
	for i := range t.frames {
		if !t.frames[i].Equal(other.frames[i]) {
			return false
		}
	}
	return true
}

// Index returns the position of the first frame equal to s, or -1.
func (t Trajectory) Index(s Snapshot) int {
	for i, f := range t.frames {
		if f.Equal(s) {
			return i
		}
	}
	return -1
}

func (t Trajectory) String() string {
	if t.IsEmpty() {
		return "Trajectory[0]"
	}
	return fmt.Sprintf("Trajectory[%d](t=%.4g..%.4g)", len(t.frames), t.First().Time, t.Last().Time)
}
