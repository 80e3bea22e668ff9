package ensemble

import (
	"fmt"
	"strings"

	"github.com/san-kum/pathsim/internal/trajectory"
	"github.com/san-kum/pathsim/internal/volume"
)

// FixedLengthTPS is the fixed-length transition path ensemble: exactly L
// frames, the first in one stable state and the last in a different one.
type FixedLengthTPS struct {
	States []volume.Volume
	L      int
}

func NewFixedLengthTPS(length int, states ...volume.Volume) (*FixedLengthTPS, error) {
	if length < 2 {
		return nil, fmt.Errorf("ensemble: fixed path length must be at least 2, got %d", length)
	}
	if len(states) < 2 {
		return nil, fmt.Errorf("ensemble: need at least two states, got %d", len(states))
	}
	return &FixedLengthTPS{States: states, L: length}, nil
}

func (f *FixedLengthTPS) Length() int { return f.L }

func (f *FixedLengthTPS) LengthBounds() (int, int) { return f.L, f.L }

func (f *FixedLengthTPS) Contains(t trajectory.Trajectory) bool {
	if t.Len() != f.L {
		return false
	}
	first, last := t.First(), t.Last()
	for i, a := range f.States {
		if !a.Contains(first) {
			continue
		}
		for j, b := range f.States {
			if i != j && b.Contains(last) {
				return true
			}
		}
	}
	return false
}

func (f *FixedLengthTPS) CanAppend(t trajectory.Trajectory) bool { return t.Len() < f.L }

// Split returns every L-frame window that connects two states, earliest
// first. Consecutive windows share at most one frame.
func (f *FixedLengthTPS) Split(t trajectory.Trajectory) []trajectory.Trajectory {
	return Scan(f, t, Overlap(1))
}

func (f *FixedLengthTPS) String() string {
	names := make([]string, len(f.States))
	for i, s := range f.States {
		names[i] = s.String()
	}
	return fmt.Sprintf("fixed-length TPS (L=%d) between %s", f.L, strings.Join(names, ", "))
}

// Transition is the flexible-length A->B ensemble: first frame in From,
// last frame in To, every interior frame outside both. Adjacent From and To
// frames form a two-frame member.
type Transition struct {
	From, To volume.Volume
}

func (tr Transition) Contains(t trajectory.Trajectory) bool {
	n := t.Len()
	if n < 2 {
		return false
	}
	if !tr.From.Contains(t.First()) || !tr.To.Contains(t.Last()) {
		return false
	}
	for i := 1; i < n-1; i++ {
		s := t.At(i)
		if tr.From.Contains(s) || tr.To.Contains(s) {
			return false
		}
	}
	return true
}

// CanAppend is true until a frame after the first lands in either state.
func (tr Transition) CanAppend(t trajectory.Trajectory) bool {
	for i := 1; i < t.Len(); i++ {
		s := t.At(i)
		if tr.From.Contains(s) || tr.To.Contains(s) {
			return false
		}
	}
	return true
}

func (tr Transition) LengthBounds() (int, int) { return 2, -1 }

// Split finds every From->To crossing in a single pass. Each segment starts
// at the last From frame before the crossing.
func (tr Transition) Split(t trajectory.Trajectory) []trajectory.Trajectory {
	var out []trajectory.Trajectory
	start := -1
	for k := 0; k < t.Len(); k++ {
		s := t.At(k)
		inFrom, inTo := tr.From.Contains(s), tr.To.Contains(s)
		if inTo && start >= 0 && k > start {
			out = append(out, t.Slice(start, k+1))
			start = -1
		}
		switch {
		case inFrom:
			start = k
		case inTo:
			start = -1
		}
	}
	return out
}

func (tr Transition) String() string {
	return fmt.Sprintf("transition %s -> %s", tr.From, tr.To)
}
