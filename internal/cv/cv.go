// Package cv defines collective variables: scalar functions of a snapshot
// used to describe states and reaction progress.
package cv

import (
	"fmt"

	"github.com/san-kum/pathsim/internal/trajectory"
)

type CV interface {
	Name() string
	Eval(s trajectory.Snapshot) float64
}

type coordinate struct {
	index int
	name  string
}

// Coordinate returns the i-th position component of a snapshot.
func Coordinate(i int) CV {
	return coordinate{index: i, name: fmt.Sprintf("x%d", i)}
}

func (c coordinate) Name() string { return c.name }

func (c coordinate) Eval(s trajectory.Snapshot) float64 {
	pos := s.State.Positions()
	if c.index < 0 || c.index >= len(pos) {
		panic(fmt.Sprintf("cv: coordinate %d out of range for %d positions", c.index, len(pos)))
	}
	return pos[c.index]
}

type function struct {
	name string
	fn   func(trajectory.Snapshot) float64
}

// Func wraps an arbitrary function as a named CV.
func Func(name string, fn func(trajectory.Snapshot) float64) CV {
	return function{name: name, fn: fn}
}

func (f function) Name() string                       { return f.name }
func (f function) Eval(s trajectory.Snapshot) float64 { return f.fn(s) }

// Series evaluates c over every frame of t.
func Series(c CV, t trajectory.Trajectory) []float64 {
	out := make([]float64, t.Len())
	for i := range out {
		out[i] = c.Eval(t.At(i))
	}
	return out
}

// Parse resolves the textual CV names used in config files: "x0", "x1", ...
func Parse(name string) (CV, error) {
	var i int
	if _, err := fmt.Sscanf(name, "x%d", &i); err != nil || i < 0 {
		return nil, fmt.Errorf("cv: unknown collective variable %q", name)
	}
	return Coordinate(i), nil
}
