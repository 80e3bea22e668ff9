package ensemble

import (
	"strings"

	"github.com/san-kum/pathsim/internal/trajectory"
)

// Intersection contains trajectories that belong to every member ensemble.
type Intersection []Ensemble

func And(es ...Ensemble) Intersection { return Intersection(es) }

func (in Intersection) Contains(t trajectory.Trajectory) bool {
	for _, e := range in {
		if !e.Contains(t) {
			return false
		}
	}
	return true
}

func (in Intersection) CanAppend(t trajectory.Trajectory) bool {
	for _, e := range in {
		if !e.CanAppend(t) {
			return false
		}
	}
	return true
}

func (in Intersection) LengthBounds() (int, int) {
	lo, hi := 1, -1
	for _, e := range in {
		b, ok := e.(Bounded)
		if !ok {
			continue
		}
		bmin, bmax := b.LengthBounds()
		if bmin > lo {
			lo = bmin
		}
		if bmax >= 0 && (hi < 0 || bmax < hi) {
			hi = bmax
		}
	}
	return lo, hi
}

func (in Intersection) String() string { return join(in, " and ") }

// Union contains trajectories that belong to any member ensemble.
type Union []Ensemble

func Or(es ...Ensemble) Union { return Union(es) }

func (u Union) Contains(t trajectory.Trajectory) bool {
	for _, e := range u {
		if e.Contains(t) {
			return true
		}
	}
	return false
}

func (u Union) CanAppend(t trajectory.Trajectory) bool {
	for _, e := range u {
		if e.CanAppend(t) {
			return true
		}
	}
	return false
}

func (u Union) LengthBounds() (int, int) {
	lo, hi := -1, 0
	for _, e := range u {
		b, ok := e.(Bounded)
		if !ok {
			return 1, -1
		}
		bmin, bmax := b.LengthBounds()
		if lo < 0 || bmin < lo {
			lo = bmin
		}
		if bmax < 0 {
			hi = -1
		} else if hi >= 0 && bmax > hi {
			hi = bmax
		}
	}
	if lo < 1 {
		lo = 1
	}
	return lo, hi
}

func (u Union) String() string { return join(u, " or ") }

func join(es []Ensemble, sep string) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}
