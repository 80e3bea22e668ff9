package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/pathsim/internal/config"
	"github.com/san-kum/pathsim/internal/dynamo"
	"github.com/san-kum/pathsim/internal/engine"
	"github.com/san-kum/pathsim/internal/ensemble"
	"github.com/san-kum/pathsim/internal/extend"
	"github.com/san-kum/pathsim/internal/storage"
	"github.com/san-kum/pathsim/internal/trajectory"
	"github.com/san-kum/pathsim/internal/volume"
)

// Experiment wires a config into a seeding engine, a production engine and
// an extender, and runs seed-then-extend once.
type Experiment struct {
	cfg    *config.Config
	reg    *Registry
	logger *slog.Logger

	model    Model
	engine   *engine.MDEngine
	seeder   *extend.Seeder
	volumes  []volume.Volume
	ensemble *ensemble.FixedLengthTPS
}

type Outcome struct {
	Seed    trajectory.Trajectory
	Result  *extend.Result
	Metrics map[string]float64
}

func New(cfg *config.Config, reg *Registry, logger *slog.Logger) *Experiment {
	if logger == nil {
		logger = slog.Default()
	}
	return &Experiment{cfg: cfg, reg: reg, logger: logger}
}

func (e *Experiment) Setup() error {
	cfg := e.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}

	model, err := e.reg.GetModel(cfg.Model)
	if err != nil {
		return err
	}
	for name, v := range cfg.Params {
		if err := model.SetParam(name, v); err != nil {
			return fmt.Errorf("model %s: %w", cfg.Model, err)
		}
	}
	e.model = model

	newInteg, err := e.reg.GetIntegrator(cfg.Integrator, cfg.Temperature, cfg.Friction)
	if err != nil {
		return err
	}
	opts := engine.Options{
		Dt:            cfg.Dt,
		StepsPerFrame: cfg.StepsPerFrame,
		MaxFrames:     cfg.MaxFrames,
		ValidateState: true,
	}
	if e.engine, err = engine.NewMD(model, newInteg, opts); err != nil {
		return err
	}
	e.engine.SetLogger(e.logger)
	for _, m := range e.reg.DefaultMetrics(model) {
		e.engine.AddMetric(m)
	}

	// seeding always runs a thermostat; a cold NVE run never leaves its well
	hotInteg, err := e.reg.GetIntegrator("langevin", cfg.Seeding.Temperature, cfg.Friction)
	if err != nil {
		return err
	}
	hotOpts := opts
	hotOpts.MaxFrames = cfg.Seeding.MaxFrames
	hot, err := engine.NewMD(model, hotInteg, hotOpts)
	if err != nil {
		return err
	}
	hot.SetLogger(e.logger)

	if e.volumes, err = cfg.Volumes(); err != nil {
		return err
	}
	if e.ensemble, err = ensemble.NewFixedLengthTPS(cfg.PathLength, e.volumes...); err != nil {
		return err
	}

	e.seeder = &extend.Seeder{
		Engine:    hot,
		From:      e.volumes[0],
		To:        e.volumes[1],
		MaxFrames: cfg.Seeding.MaxFrames,
		Seed:      cfg.Seed,
		Logger:    e.logger,
	}
	return nil
}

// StartState is the configured initial state, or the model's default.
func (e *Experiment) StartState() (dynamo.State, error) {
	if len(e.cfg.InitState) == 0 {
		return e.model.DefaultState(), nil
	}
	x := dynamo.State(e.cfg.InitState).Clone()
	if len(x) != e.model.StateDim() {
		return nil, fmt.Errorf("%w: init_state has %d components, %s wants %d", dynamo.ErrDimensionMismatch, len(x), e.cfg.Model, e.model.StateDim())
	}
	return x, nil
}

func (e *Experiment) Run(ctx context.Context, hook func(extend.Attempt)) (*Outcome, error) {
	if e.engine == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	x0, err := e.StartState()
	if err != nil {
		return nil, err
	}
	seed, err := e.seeder.Run(ctx, trajectory.NewSnapshot(x0, 0))
	if err != nil {
		return nil, err
	}

	opts := []extend.Option{extend.WithLogger(e.logger)}
	if hook != nil {
		opts = append(opts, extend.WithAttemptHook(hook))
	}
	res, err := extend.New(e.engine, e.cfg.ExtenderConfig(), opts...).ExtendToFixedLength(ctx, seed, e.ensemble)
	if err != nil {
		return nil, err
	}

	return &Outcome{Seed: seed, Result: res, Metrics: e.engine.Metrics()}, nil
}

func (e *Experiment) Ensemble() *ensemble.FixedLengthTPS { return e.ensemble }

func (e *Experiment) Engine() *engine.MDEngine { return e.engine }

// Metadata describes a finished run for storage.
func (e *Experiment) Metadata(out *Outcome) storage.RunMetadata {
	names := make([]string, len(e.cfg.States))
	for i, s := range e.cfg.States {
		names[i] = fmt.Sprintf("%s=%s", s.Name, e.volumes[i])
	}
	return storage.RunMetadata{
		Model:       e.cfg.Model,
		Seed:        e.cfg.Seed,
		Dt:          e.cfg.Dt,
		FrameDt:     e.engine.FrameInterval(),
		Integrator:  e.cfg.Integrator,
		Temperature: e.cfg.Temperature,
		Friction:    e.cfg.Friction,
		Ensemble:    e.ensemble.String(),
		States:      names,
		PathLength:  e.cfg.PathLength,
		SeedLength:  out.Seed.Len(),
		Attempts:    out.Result.Attempts,
		MaxLen:      out.Result.MaxLen,
		Metrics:     out.Metrics,
	}
}
