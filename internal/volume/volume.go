// Package volume describes regions of phase space as predicates over
// snapshots. Stable states are volumes, and volumes combine with a small
// boolean algebra that simplifies trivially empty or full operands.
package volume

import (
	"fmt"
	"math"

	"github.com/san-kum/pathsim/internal/cv"
	"github.com/san-kum/pathsim/internal/trajectory"
)

type Volume interface {
	Contains(s trajectory.Snapshot) bool
	String() string
}

type empty struct{}

func (empty) Contains(trajectory.Snapshot) bool { return false }
func (empty) String() string                    { return "empty" }

type full struct{}

func (full) Contains(trajectory.Snapshot) bool { return true }
func (full) String() string                    { return "all" }

// Empty contains no snapshot; Full contains every snapshot.
var (
	Empty Volume = empty{}
	Full  Volume = full{}
)

// CVRange contains snapshots whose CV value lies in [Min, Max].
type CVRange struct {
	CV       cv.CV
	Min, Max float64
}

func Range(c cv.CV, lo, hi float64) *CVRange {
	return &CVRange{CV: c, Min: lo, Max: hi}
}

func (r *CVRange) Contains(s trajectory.Snapshot) bool {
	v := r.CV.Eval(s)
	return v >= r.Min && v <= r.Max
}

func (r *CVRange) String() string {
	return fmt.Sprintf("{x|%s(x) in [%g, %g]}", r.CV.Name(), r.Min, r.Max)
}

// PeriodicRange is CVRange for a CV that wraps into [PeriodMin, PeriodMax).
// A range with Min > Max after wrapping spans the periodic boundary.
type PeriodicRange struct {
	CV                   cv.CV
	Min, Max             float64
	PeriodMin, PeriodMax float64
}

func Periodic(c cv.CV, lo, hi, periodMin, periodMax float64) (*PeriodicRange, error) {
	period := periodMax - periodMin
	if period <= 0 {
		return nil, fmt.Errorf("volume: invalid period [%g, %g)", periodMin, periodMax)
	}
	if hi-lo > period {
		return nil, fmt.Errorf("volume: range [%g, %g] larger than period %g", lo, hi, period)
	}
	p := &PeriodicRange{CV: c, PeriodMin: periodMin, PeriodMax: periodMax}
	if hi-lo == period {
		p.Min, p.Max = periodMin, periodMax
	} else {
		p.Min, p.Max = p.wrap(lo), p.wrap(hi)
	}
	return p, nil
}

func (p *PeriodicRange) wrap(v float64) float64 {
	period := p.PeriodMax - p.PeriodMin
	w := math.Mod(v-p.PeriodMin, period)
	if w < 0 {
		w += period
	}
	return w + p.PeriodMin
}

func (p *PeriodicRange) Contains(s trajectory.Snapshot) bool {
	v := p.wrap(p.CV.Eval(s))
	if p.Min <= p.Max {
		return v >= p.Min && v <= p.Max
	}
	return v >= p.Min || v <= p.Max
}

func (p *PeriodicRange) String() string {
	return fmt.Sprintf("{x|(%s(x) - %g) %% %g + %g in [%g, %g]}",
		p.CV.Name(), p.PeriodMin, p.PeriodMax-p.PeriodMin, p.PeriodMin, p.Min, p.Max)
}
