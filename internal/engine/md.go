package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/san-kum/pathsim/internal/dynamo"
	"github.com/san-kum/pathsim/internal/trajectory"
)

const DefaultMaxFrames = 100000

// IntegratorFactory builds a fresh integrator for one continuation.
// Stochastic integrators must draw all their noise from seed.
type IntegratorFactory func(seed int64) dynamo.Integrator

type Options struct {
	Dt            float64
	StepsPerFrame int
	// MaxFrames is a hard cap applied on top of the request's conditions.
	MaxFrames     int
	ValidateState bool
}

func DefaultOptions() Options {
	return Options{
		Dt:            0.01,
		StepsPerFrame: 10,
		MaxFrames:     DefaultMaxFrames,
		ValidateState: true,
	}
}

// MDEngine integrates a dynamo.System and records a snapshot every
// StepsPerFrame steps. Each Generate call builds its own integrator, so
// concurrent calls are safe.
type MDEngine struct {
	dyn      dynamo.System
	newInteg IntegratorFactory
	opts     Options
	logger   *slog.Logger

	mu      sync.Mutex
	metrics []dynamo.Metric
}

func NewMD(dyn dynamo.System, newInteg IntegratorFactory, opts Options) (*MDEngine, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	if newInteg == nil {
		return nil, fmt.Errorf("integrator factory is required")
	}
	if opts.MaxFrames <= 0 {
		opts.MaxFrames = DefaultMaxFrames
	}
	return &MDEngine{
		dyn:      dyn,
		newInteg: newInteg,
		opts:     opts,
		logger:   slog.Default().With(slog.String("component", "engine")),
		metrics:  make([]dynamo.Metric, 0),
	}, nil
}

func validateOptions(opts Options) error {
	if opts.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", opts.Dt)
	}
	if opts.StepsPerFrame <= 0 {
		return fmt.Errorf("steps per frame must be positive, got %d", opts.StepsPerFrame)
	}
	return nil
}

func (e *MDEngine) SetLogger(l *slog.Logger) { e.logger = l.With(slog.String("component", "engine")) }

// AddMetric registers a metric that observes every generated frame.
func (e *MDEngine) AddMetric(m dynamo.Metric) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = append(e.metrics, m)
}

func (e *MDEngine) Metrics() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]float64, len(e.metrics))
	for _, m := range e.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (e *MDEngine) System() dynamo.System { return e.dyn }

// FrameInterval is the simulated time between two recorded snapshots.
func (e *MDEngine) FrameInterval() float64 { return e.opts.Dt * float64(e.opts.StepsPerFrame) }

func (e *MDEngine) Generate(ctx context.Context, req Request) (trajectory.Trajectory, error) {
	if len(req.Start.State) != e.dyn.StateDim() {
		return trajectory.Trajectory{}, &Failure{
			Direction: req.Direction,
			Err:       fmt.Errorf("%w: start has %d components, system wants %d", dynamo.ErrDimensionMismatch, len(req.Start.State), e.dyn.StateDim()),
		}
	}

	start := req.Start
	sign := 1.0
	if req.Direction == Backward {
		start = start.Reversed()
		sign = -1.0
	}

	integ := e.newInteg(req.Seed)
	frames := make([]trajectory.Snapshot, 0, 256)
	frames = append(frames, start)

	x := start.State.Clone()
	tau := 0.0
	dt := e.opts.Dt
	reason := "max_frames"

	for {
		select {
		case <-ctx.Done():
			return trajectory.Trajectory{}, ctx.Err()
		default:
		}

		for i := 0; i < e.opts.StepsPerFrame; i++ {
			x = integ.Step(e.dyn, x, tau, dt)
			tau += dt
		}
		if e.opts.ValidateState && !x.IsValid() {
			return trajectory.Trajectory{}, &Failure{Direction: req.Direction, Frame: len(frames), Err: dynamo.ErrUnstable}
		}

		snap := trajectory.NewSnapshot(x, start.Time+sign*tau)
		frames = append(frames, snap)
		// sofar excludes snap but shares its backing array, so Grow is free
		sofar := trajectory.Wrap(frames[:len(frames)-1])

		// every condition runs, even after one has fired
		stop := false
		for _, cond := range req.Stopping {
			if cond(sofar, snap) {
				stop = true
			}
		}

		e.observe(snap)

		if stop {
			reason = "condition"
			break
		}
		if len(frames) >= e.opts.MaxFrames {
			break
		}
	}

	e.logger.Debug("continuation generated",
		slog.String("direction", req.Direction.String()),
		slog.Int("frames", len(frames)),
		slog.String("stopped_by", reason),
	)

	traj := trajectory.Wrap(frames)
	if req.Direction == Backward {
		traj = traj.Reversed()
	}
	return traj, nil
}

func (e *MDEngine) observe(s trajectory.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, m := range e.metrics {
		m.Observe(s.State, s.Time)
	}
}
