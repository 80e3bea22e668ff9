package ensemble

import (
	"github.com/san-kum/pathsim/internal/trajectory"
)

// Ensemble is a membership predicate over trajectories.
type Ensemble interface {
	Contains(t trajectory.Trajectory) bool
	// CanAppend reports whether t could still grow into a member. Engines
	// use it as a stopping condition.
	CanAppend(t trajectory.Trajectory) bool
	String() string
}

// Splitter finds the maximal contiguous members of an ensemble inside a
// longer trajectory, ordered by start position.
type Splitter interface {
	Split(t trajectory.Trajectory) []trajectory.Trajectory
}

// Bounded ensembles restrict member length. max < 0 means unbounded.
type Bounded interface {
	LengthBounds() (min, max int)
}

// FixedLength is a searchable ensemble whose members all have Length frames.
type FixedLength interface {
	Ensemble
	Splitter
	Length() int
}

type splitConfig struct {
	overlap   int
	minLength int
	maxLength int
}

type SplitOption func(*splitConfig)

// Overlap sets how many frames consecutive results may share. The default
// of 1 lets a result begin on the frame where the previous one ended.
func Overlap(n int) SplitOption {
	return func(c *splitConfig) { c.overlap = n }
}

// MinLength and MaxLength narrow the window lengths the scan tries.
func MinLength(n int) SplitOption {
	return func(c *splitConfig) { c.minLength = n }
}

func MaxLength(n int) SplitOption {
	return func(c *splitConfig) { c.maxLength = n }
}

// Split delegates to e's own Split when it has one and otherwise falls back
// to Scan with default options.
func Split(e Ensemble, t trajectory.Trajectory) []trajectory.Trajectory {
	if s, ok := e.(Splitter); ok {
		return s.Split(t)
	}
	return Scan(e, t)
}

// Scan walks start positions left to right. At each start it tries window
// lengths from longest to shortest and keeps the first member it finds,
// then resumes at the end of that member minus the overlap.
func Scan(e Ensemble, t trajectory.Trajectory, opts ...SplitOption) []trajectory.Trajectory {
	cfg := splitConfig{overlap: 1, minLength: 1, maxLength: -1}
	if b, ok := e.(Bounded); ok {
		cfg.minLength, cfg.maxLength = b.LengthBounds()
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.minLength < 1 {
		cfg.minLength = 1
	}

	n := t.Len()
	var out []trajectory.Trajectory
	for i := 0; i < n; {
		longest := n - i
		if cfg.maxLength >= 0 && cfg.maxLength < longest {
			longest = cfg.maxLength
		}

		found := false
		for l := longest; l >= cfg.minLength; l-- {
			sub := t.Slice(i, i+l)
			if !e.Contains(sub) {
				continue
			}
			out = append(out, sub)
			next := i + l - cfg.overlap
			if next <= i {
				next = i + 1
			}
			i = next
			found = true
			break
		}
		if !found {
			i++
		}
	}
	return out
}
