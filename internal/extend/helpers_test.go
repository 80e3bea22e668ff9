package extend_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/san-kum/pathsim/internal/dynamo"
	"github.com/san-kum/pathsim/internal/engine"
	"github.com/san-kum/pathsim/internal/trajectory"
)

// line builds n frames with x = start+i and t = start+i.
func line(start, n int) trajectory.Trajectory {
	frames := make([]trajectory.Snapshot, n)
	for i := range frames {
		x := float64(start + i)
		frames[i] = trajectory.Snapshot{State: dynamo.State{x, 0}, Time: x}
	}
	return trajectory.Wrap(frames)
}

// lineEngine moves x by one unit per frame in the requested direction and
// honors the stopping conditions, so a MaxLength(n) request yields n frames.
type lineEngine struct {
	mu    sync.Mutex
	calls []engine.Request
	lens  []int
	// intercept, when set, may replace the result of call i.
	intercept func(ctx context.Context, i int, req engine.Request) (t trajectory.Trajectory, handled bool, err error)
}

func (e *lineEngine) Generate(ctx context.Context, req engine.Request) (trajectory.Trajectory, error) {
	e.mu.Lock()
	i := len(e.calls)
	e.calls = append(e.calls, req)
	e.mu.Unlock()

	if e.intercept != nil {
		if t, ok, err := e.intercept(ctx, i, req); ok {
			return t, err
		}
	}
	if err := ctx.Err(); err != nil {
		return trajectory.Trajectory{}, err
	}

	step := 1.0
	if req.Direction == engine.Backward {
		step = -1
	}
	frames := []trajectory.Snapshot{req.Start}
	for len(frames) < 100000 {
		prev := frames[len(frames)-1]
		next := trajectory.Snapshot{State: dynamo.State{prev.State[0] + step, 0}, Time: prev.Time + step}
		stop := false
		sofar := trajectory.Wrap(frames)
		for _, cond := range req.Stopping {
			if cond(sofar, next) {
				stop = true
			}
		}
		frames = append(frames, next)
		if stop {
			break
		}
	}

	t := trajectory.Wrap(frames)
	if req.Direction == engine.Backward {
		t = t.Reversed()
	}
	e.mu.Lock()
	e.lens = append(e.lens, t.Len())
	e.mu.Unlock()
	return t, nil
}

func (e *lineEngine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

// scripted is a FixedLength ensemble whose Split succeeds only on the
// succeedOn-th call. It offers a too-short window before the real one.
type scripted struct {
	L         int
	succeedOn int
	splits    int
}

func (s *scripted) Length() int                            { return s.L }
func (s *scripted) Contains(t trajectory.Trajectory) bool  { return t.Len() == s.L }
func (s *scripted) CanAppend(t trajectory.Trajectory) bool { return t.Len() < s.L }
func (s *scripted) String() string                         { return fmt.Sprintf("scripted(L=%d)", s.L) }
func (s *scripted) Split(t trajectory.Trajectory) []trajectory.Trajectory {
	call := s.splits
	s.splits++
	if call != s.succeedOn || t.Len() < s.L+1 {
		return nil
	}
	return []trajectory.Trajectory{t.Slice(0, s.L-1), t.Slice(1, s.L+1)}
}
