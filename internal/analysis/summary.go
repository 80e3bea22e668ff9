package analysis

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/pathsim/internal/cv"
	"github.com/san-kum/pathsim/internal/trajectory"
	"github.com/san-kum/pathsim/internal/volume"
)

// Summary describes a sample. StdDev is the unbiased estimate and is zero
// for fewer than two values.
type Summary struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	Median float64
}

func Summarize(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	s := Summary{
		N:      len(xs),
		Mean:   stat.Mean(sorted, nil),
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}
	if len(xs) > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}
	return s
}

func (s Summary) String() string {
	if s.N == 0 {
		return "n=0"
	}
	return fmt.Sprintf("n=%d mean=%.4g sd=%.4g min=%.4g median=%.4g max=%.4g", s.N, s.Mean, s.StdDev, s.Min, s.Max, s.Median)
}

type State struct {
	Name   string
	Volume volume.Volume
}

// Flux summarizes the in and out flux segments of one state, in frames.
type Flux struct {
	In, Out Summary
}

// Report is the per-trajectory analysis shown by the CLI.
type Report struct {
	Frames   int
	Duration float64
	// Transitions counts crossings between any ordered pair of states.
	Transitions int
	Crossings   map[string]int
	// TransitionDurations is keyed like Crossings.
	TransitionDurations map[string]Summary
	ContinuousTimes     map[string]Summary
	Lifetimes           map[string]Summary
	Flux                map[string]Flux
	Occupancy           map[string]float64
	CV                  map[string]Summary
}

// Analyze reports, per state, continuous times, lifetimes, flux and
// occupancy, then crossings and transition durations for every ordered
// pair, plus a summary of each coordinate. For lifetimes and flux the
// other state is the union of all remaining states.
func Analyze(t trajectory.Trajectory, frameDt float64, states ...State) *Report {
	rep := &Report{
		Frames:              t.Len(),
		Crossings:           make(map[string]int),
		TransitionDurations: make(map[string]Summary),
		ContinuousTimes:     make(map[string]Summary),
		Lifetimes:           make(map[string]Summary),
		Flux:                make(map[string]Flux),
		Occupancy:           make(map[string]float64),
		CV:                  make(map[string]Summary),
	}
	if t.IsEmpty() {
		return rep
	}
	rep.Duration = t.Last().Time - t.First().Time

	for i, s := range states {
		var rest []volume.Volume
		for j, o := range states {
			if j != i {
				rest = append(rest, o.Volume)
			}
		}
		other := volume.Union(rest...)

		rep.ContinuousTimes[s.Name] = Summarize(ContinuousTimes(t, s.Volume, frameDt))
		rep.Lifetimes[s.Name] = Summarize(Lifetimes(t, s.Volume, other, frameDt))
		in, out := FluxSegments(t, s.Volume, other)
		rep.Flux[s.Name] = Flux{In: Summarize(durations(in, 0, 1)), Out: Summarize(durations(out, 0, 1))}

		inside := 0
		for _, seg := range ContinuousSegments(t, s.Volume) {
			inside += seg.Len()
		}
		rep.Occupancy[s.Name] = float64(inside) / float64(t.Len())
	}

	for _, from := range states {
		for _, to := range states {
			if from.Name == to.Name {
				continue
			}
			key := from.Name + "->" + to.Name
			d := TransitionDurations(t, from.Volume, to.Volume, frameDt)
			rep.Crossings[key] = len(d)
			rep.TransitionDurations[key] = Summarize(d)
			rep.Transitions += len(d)
		}
	}

	for i := 0; i < len(t.First().State)/2; i++ {
		c := cv.Coordinate(i)
		rep.CV[c.Name()] = Summarize(cv.Series(c, t))
	}
	return rep
}
