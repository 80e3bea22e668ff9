package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/san-kum/pathsim/internal/ensemble"
	"github.com/san-kum/pathsim/internal/trajectory"
	"github.com/san-kum/pathsim/internal/volume"
)

// Direction selects which way in time a continuation runs.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "forward", "fw":
		return Forward, nil
	case "backward", "bw":
		return Backward, nil
	}
	return 0, fmt.Errorf("engine: unknown direction %q", s)
}

// StoppingCondition is evaluated on every newly generated frame. sofar holds
// the continuation before frame is appended. Returning true appends frame
// and ends generation.
type StoppingCondition func(sofar trajectory.Trajectory, frame trajectory.Snapshot) bool

// MaxLength stops once the continuation, start frame included, holds n
// frames. Continuations always contain at least two frames.
func MaxLength(n int) StoppingCondition {
	return func(sofar trajectory.Trajectory, _ trajectory.Snapshot) bool {
		return sofar.Len()+1 >= n
	}
}

// InVolume stops on the first generated frame inside v.
func InVolume(v volume.Volume) StoppingCondition {
	return func(_ trajectory.Trajectory, frame trajectory.Snapshot) bool {
		return v.Contains(frame)
	}
}

// EnsembleCannotAppend stops on the first frame after which the
// continuation could no longer grow into a member of e. CanAppend sees
// sofar with frame appended.
func EnsembleCannotAppend(e ensemble.Ensemble) StoppingCondition {
	return func(sofar trajectory.Trajectory, frame trajectory.Snapshot) bool {
		return !e.CanAppend(sofar.Grow(frame))
	}
}

// Request describes one continuation. Everything that influences the
// result, the noise seed included, travels in the request.
type Request struct {
	Start     trajectory.Snapshot
	Direction Direction
	Stopping  []StoppingCondition
	Seed      int64
}

// Engine generates trajectory continuations.
//
// A Forward continuation begins at Start. A Backward continuation is returned
// in chronological order and ends at Start, so its last frame equals Start.
type Engine interface {
	Generate(ctx context.Context, req Request) (trajectory.Trajectory, error)
}

// Func adapts a plain function to Engine.
type Func func(ctx context.Context, req Request) (trajectory.Trajectory, error)

func (f Func) Generate(ctx context.Context, req Request) (trajectory.Trajectory, error) {
	return f(ctx, req)
}
