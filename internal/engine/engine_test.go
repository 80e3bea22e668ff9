package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/pathsim/internal/cv"
	"github.com/san-kum/pathsim/internal/dynamo"
	"github.com/san-kum/pathsim/internal/ensemble"
	"github.com/san-kum/pathsim/internal/integrators"
	"github.com/san-kum/pathsim/internal/physics"
	"github.com/san-kum/pathsim/internal/trajectory"
	"github.com/san-kum/pathsim/internal/volume"
)

func verlet(int64) dynamo.Integrator { return integrators.NewVelocityVerlet() }

func newTestEngine(t *testing.T, opts Options) *MDEngine {
	t.Helper()
	eng, err := NewMD(physics.NewDoubleWell(), verlet, opts)
	if err != nil {
		t.Fatalf("NewMD: %v", err)
	}
	return eng
}

func TestGenerateForward(t *testing.T) {
	eng := newTestEngine(t, DefaultOptions())
	start := trajectory.NewSnapshot(dynamo.State{-1, 0.5}, 0)

	traj, err := eng.Generate(context.Background(), Request{
		Start:     start,
		Direction: Forward,
		Stopping:  []StoppingCondition{MaxLength(10)},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if traj.Len() != 10 {
		t.Errorf("expected 10 frames, got %d", traj.Len())
	}
	if !traj.First().Equal(start) {
		t.Errorf("forward continuation should begin at the start frame, got %v", traj.First())
	}
	dt := eng.FrameInterval()
	if math.Abs(traj.Last().Time-9*dt) > 1e-9 {
		t.Errorf("expected last time %.4f, got %.4f", 9*dt, traj.Last().Time)
	}
}

func TestGenerateBackward(t *testing.T) {
	eng := newTestEngine(t, DefaultOptions())
	start := trajectory.NewSnapshot(dynamo.State{-1, 0.5}, 3.0)

	traj, err := eng.Generate(context.Background(), Request{
		Start:     start,
		Direction: Backward,
		Stopping:  []StoppingCondition{MaxLength(8)},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if traj.Len() != 8 {
		t.Fatalf("expected 8 frames, got %d", traj.Len())
	}
	if !traj.Last().Equal(start) {
		t.Errorf("backward continuation should end at the start frame, got %v", traj.Last())
	}
	for i := 1; i < traj.Len(); i++ {
		if traj.At(i).Time <= traj.At(i-1).Time {
			t.Fatalf("times not ascending at %d: %v <= %v", i, traj.At(i).Time, traj.At(i-1).Time)
		}
	}
}

func TestGenerateBackwardRetracesForward(t *testing.T) {
	eng := newTestEngine(t, DefaultOptions())
	start := trajectory.NewSnapshot(dynamo.State{-1, 0.5}, 0)
	ctx := context.Background()

	fw, err := eng.Generate(ctx, Request{Start: start, Direction: Forward, Stopping: []StoppingCondition{MaxLength(20)}})
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	bw, err := eng.Generate(ctx, Request{Start: fw.Last(), Direction: Backward, Stopping: []StoppingCondition{MaxLength(20)}})
	if err != nil {
		t.Fatalf("backward: %v", err)
	}

	// Verlet is time-reversible, so the backward run retraces the forward one.
	if d := floats.Distance(bw.First().State, start.State, 2); d > 1e-8 {
		t.Errorf("backward run did not retrace: distance %g", d)
	}
}

func TestGenerateInVolume(t *testing.T) {
	eng := newTestEngine(t, DefaultOptions())
	right := volume.Range(cv.Coordinate(0), 0.5, 10)

	traj, err := eng.Generate(context.Background(), Request{
		Start:     trajectory.NewSnapshot(dynamo.State{-1, 3}, 0),
		Direction: Forward,
		Stopping:  []StoppingCondition{InVolume(right), MaxLength(10000)},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !right.Contains(traj.Last()) {
		t.Errorf("last frame should be inside the stopping volume: %v", traj.Last())
	}
	for i := 0; i < traj.Len()-1; i++ {
		if right.Contains(traj.At(i)) {
			t.Fatalf("frame %d already inside the stopping volume", i)
		}
	}
}

func TestEnsembleCannotAppend(t *testing.T) {
	eng := newTestEngine(t, DefaultOptions())
	right := volume.Range(cv.Coordinate(0), 0.5, 10)
	start := trajectory.NewSnapshot(dynamo.State{-1, 3}, 0)

	t.Run("length bound", func(t *testing.T) {
		traj, err := eng.Generate(context.Background(), Request{
			Start:     start,
			Direction: Forward,
			Stopping:  []StoppingCondition{EnsembleCannotAppend(ensemble.Length{Min: 2, Max: 7})},
		})
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if traj.Len() != 7 {
			t.Errorf("expected 7 frames, got %d", traj.Len())
		}
	})

	t.Run("matches InVolume for all-out-of", func(t *testing.T) {
		byEnsemble, err := eng.Generate(context.Background(), Request{
			Start:     start,
			Direction: Forward,
			Stopping:  []StoppingCondition{EnsembleCannotAppend(ensemble.AllOutX{V: right}), MaxLength(10000)},
		})
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		byVolume, err := eng.Generate(context.Background(), Request{
			Start:     start,
			Direction: Forward,
			Stopping:  []StoppingCondition{InVolume(right), MaxLength(10000)},
		})
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if !right.Contains(byEnsemble.Last()) {
			t.Errorf("last frame should have left the ensemble: %v", byEnsemble.Last())
		}
		if !byEnsemble.Equal(byVolume) {
			t.Errorf("expected the same run, got %d and %d frames", byEnsemble.Len(), byVolume.Len())
		}
	})

	t.Run("sees the candidate frame", func(t *testing.T) {
		var lens []int
		cond := EnsembleCannotAppend(recorder{max: 4, lens: &lens})
		if _, err := eng.Generate(context.Background(), Request{Start: start, Stopping: []StoppingCondition{cond}}); err != nil {
			t.Fatalf("Generate: %v", err)
		}
		want := []int{2, 3, 4}
		if len(lens) != len(want) {
			t.Fatalf("expected CanAppend on lengths %v, got %v", want, lens)
		}
		for i := range want {
			if lens[i] != want[i] {
				t.Errorf("call %d: expected length %d, got %d", i, want[i], lens[i])
			}
		}
	})
}

// recorder accepts appends up to max frames and records what it was asked.
type recorder struct {
	max  int
	lens *[]int
}

func (r recorder) Contains(t trajectory.Trajectory) bool { return t.Len() <= r.max }
func (r recorder) CanAppend(t trajectory.Trajectory) bool {
	*r.lens = append(*r.lens, t.Len())
	return t.Len() < r.max
}
func (r recorder) String() string { return "recorder" }

func TestGenerateMaxFrames(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxFrames = 5
	eng := newTestEngine(t, opts)

	traj, err := eng.Generate(context.Background(), Request{
		Start:     trajectory.NewSnapshot(dynamo.State{-1, 0}, 0),
		Direction: Forward,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if traj.Len() != 5 {
		t.Errorf("expected hard cap of 5 frames, got %d", traj.Len())
	}
}

type exploding struct{}

func (exploding) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{0, math.Inf(1)}
}
func (exploding) StateDim() int { return 2 }

func TestGenerateUnstable(t *testing.T) {
	eng, err := NewMD(exploding{}, verlet, DefaultOptions())
	if err != nil {
		t.Fatalf("NewMD: %v", err)
	}

	_, err = eng.Generate(context.Background(), Request{
		Start:     trajectory.NewSnapshot(dynamo.State{0, 0}, 0),
		Direction: Backward,
		Stopping:  []StoppingCondition{MaxLength(10)},
	})
	if !errors.Is(err, ErrEngineFailure) {
		t.Fatalf("expected ErrEngineFailure, got %v", err)
	}
	if !errors.Is(err, dynamo.ErrUnstable) {
		t.Errorf("expected ErrUnstable cause, got %v", err)
	}
	var f *Failure
	if !errors.As(err, &f) || f.Direction != Backward || f.Frame != 1 {
		t.Errorf("unexpected failure details: %+v", f)
	}
}

func TestGenerateDimensionMismatch(t *testing.T) {
	eng := newTestEngine(t, DefaultOptions())

	_, err := eng.Generate(context.Background(), Request{
		Start:    trajectory.NewSnapshot(dynamo.State{0, 0, 0, 0}, 0),
		Stopping: []StoppingCondition{MaxLength(3)},
	})
	if !errors.Is(err, dynamo.ErrDimensionMismatch) || !errors.Is(err, ErrEngineFailure) {
		t.Errorf("expected dimension mismatch failure, got %v", err)
	}
}

func TestGenerateCanceled(t *testing.T) {
	eng := newTestEngine(t, DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Generate(ctx, Request{
		Start:    trajectory.NewSnapshot(dynamo.State{-1, 0}, 0),
		Stopping: []StoppingCondition{MaxLength(100)},
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrEngineFailure) {
		t.Error("cancellation must not be reported as an engine failure")
	}
}

func TestNewMDInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"zero dt", Options{Dt: 0, StepsPerFrame: 1}},
		{"negative dt", Options{Dt: -0.1, StepsPerFrame: 1}},
		{"zero steps", Options{Dt: 0.1, StepsPerFrame: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMD(physics.NewDoubleWell(), verlet, tt.opts); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
	if _, err := NewMD(physics.NewDoubleWell(), nil, DefaultOptions()); err == nil {
		t.Error("expected error for missing integrator factory")
	}
}

type countMetric struct{ n int }

func (c *countMetric) Name() string                      { return "count" }
func (c *countMetric) Observe(x dynamo.State, t float64) { c.n++ }
func (c *countMetric) Value() float64                    { return float64(c.n) }
func (c *countMetric) Reset()                            { c.n = 0 }

func TestGenerateObservesMetrics(t *testing.T) {
	eng := newTestEngine(t, DefaultOptions())
	m := &countMetric{}
	eng.AddMetric(m)

	_, err := eng.Generate(context.Background(), Request{
		Start:    trajectory.NewSnapshot(dynamo.State{-1, 0}, 0),
		Stopping: []StoppingCondition{MaxLength(6)},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := eng.Metrics()["count"]; got != 5 {
		t.Errorf("expected 5 observed frames, got %v", got)
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"forward", Forward, false},
		{"BW", Backward, false},
		{"-1", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDirection(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDirection(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseDirection(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if Backward.String() != "backward" {
		t.Errorf("unexpected String() %q", Backward.String())
	}
}

func TestDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
		ok   bool
	}{
		{"forward", Forward, true},
		{"BW", Backward, true},
		{"backward", Backward, true},
		{"-1", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			if (err == nil) != tt.ok {
				t.Fatalf("ParseDirection(%q) error = %v", tt.in, err)
			}
			if tt.ok && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if Forward.String() != "forward" || Direction(7).String() != "Direction(7)" {
		t.Errorf("unexpected names %q, %q", Forward, Direction(7))
	}
}
