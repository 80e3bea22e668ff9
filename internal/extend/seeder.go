package extend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/pathsim/internal/engine"
	"github.com/san-kum/pathsim/internal/ensemble"
	"github.com/san-kum/pathsim/internal/trajectory"
	"github.com/san-kum/pathsim/internal/volume"
)

// Seeder produces an initial From->To path by running an engine, usually a
// hotter one, until it reaches To.
type Seeder struct {
	Engine   engine.Engine
	From, To volume.Volume
	// Bound, when set, must accept every prefix of the run; the run stops
	// on the first frame it cannot append. It defaults to runs of at most
	// MaxFrames frames.
	Bound     ensemble.Ensemble
	MaxFrames int
	Seed      int64
	Logger    *slog.Logger
}

// Run generates forward from start and returns the last From->To segment of
// the run.
func (s *Seeder) Run(ctx context.Context, start trajectory.Snapshot) (trajectory.Trajectory, error) {
	if s.Engine == nil || s.From == nil || s.To == nil {
		return trajectory.Trajectory{}, fmt.Errorf("%w: seeder needs an engine and both states", ErrInvalidConfig)
	}
	maxFrames := s.MaxFrames
	if maxFrames <= 0 {
		maxFrames = engine.DefaultMaxFrames
	}
	bound := s.Bound
	if bound == nil {
		bound = ensemble.Length{Min: 2, Max: maxFrames}
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "seeder"))

	run, err := s.Engine.Generate(ctx, engine.Request{
		Start:     start,
		Direction: engine.Forward,
		Stopping: []engine.StoppingCondition{
			engine.InVolume(s.To),
			engine.EnsembleCannotAppend(bound),
		},
		Seed: s.Seed,
	})
	if err != nil {
		return trajectory.Trajectory{}, fmt.Errorf("extend: seeding: %w", err)
	}

	segments := ensemble.Transition{From: s.From, To: s.To}.Split(run)
	if len(segments) == 0 {
		return trajectory.Trajectory{}, fmt.Errorf("%w: %d frames from %s never reached %s", ErrNoTransition, run.Len(), s.From, s.To)
	}
	seed := segments[len(segments)-1]
	logger.Info("seed path found",
		slog.Int("run_len", run.Len()),
		slog.Int("seed_len", seed.Len()),
	)
	return seed, nil
}
