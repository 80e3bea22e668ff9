package extend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/pathsim/internal/engine"
	"github.com/san-kum/pathsim/internal/ensemble"
	"github.com/san-kum/pathsim/internal/trajectory"
)

var errAttemptTimeout = errors.New("extend: attempt timed out")

// Attempt summarizes one pass of the retry loop.
type Attempt struct {
	Index        int
	MaxLen       int
	CandidateLen int
	Matches      int
	TimedOut     bool
}

type Result struct {
	Trajectory trajectory.Trajectory
	// Candidate is the assembled trajectory the winning window came from.
	Candidate trajectory.Trajectory
	Attempts  int
	MaxLen    int
}

type Extender struct {
	eng    engine.Engine
	cfg    Config
	rng    *rand.Rand
	logger *slog.Logger
	hook   func(Attempt)
}

type Option func(*Extender)

func WithLogger(l *slog.Logger) Option {
	return func(x *Extender) { x.logger = l.With(slog.String("component", "extend")) }
}

// WithAttemptHook registers a callback that runs after every attempt.
func WithAttemptHook(fn func(Attempt)) Option {
	return func(x *Extender) { x.hook = fn }
}

func New(eng engine.Engine, cfg Config, opts ...Option) *Extender {
	x := &Extender{
		eng:    eng,
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		logger: slog.Default().With(slog.String("component", "extend")),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// ExtendToFixedLength grows seed in both time directions until ens finds a
// member inside the grown trajectory. Attempt i caps each continuation at
// BaseLength + i*Increment frames.
//
// The error is ErrInvalidSeed (bad seed or ensemble) or ErrInvalidConfig
// before any attempt, an
// engine.ErrEngineFailure as soon as a continuation fails, the context's error
// on cancellation, or an *ExhaustedError once the budget is spent.
func (x *Extender) ExtendToFixedLength(ctx context.Context, seed trajectory.Trajectory, ens ensemble.FixedLength) (*Result, error) {
	if seed.IsEmpty() {
		return nil, fmt.Errorf("%w: empty trajectory", ErrInvalidSeed)
	}
	if ens == nil {
		return nil, fmt.Errorf("%w: nil ensemble", ErrInvalidSeed)
	}
	if err := x.cfg.Validate(); err != nil {
		return nil, err
	}
	length := ens.Length()
	if length <= 0 {
		return nil, fmt.Errorf("%w: ensemble length %d", ErrInvalidSeed, length)
	}

	for i := 0; i < x.cfg.MaxAttempts; i++ {
		maxLen := x.cfg.MaxLen(i)
		seeds := [2]int64{x.rng.Int63(), x.rng.Int63()}

		res, info, err := x.attempt(ctx, i, seed, ens, maxLen, seeds)
		if x.hook != nil {
			x.hook(info)
		}
		if err != nil {
			if errors.Is(err, errAttemptTimeout) {
				x.logger.Warn("extension attempt timed out",
					slog.Int("attempt", i),
					slog.Int("max_len", maxLen),
				)
				continue
			}
			return nil, fmt.Errorf("extend: attempt %d: %w", i, err)
		}

		x.logger.Info("extension attempt",
			slog.Int("attempt", i),
			slog.Int("max_len", maxLen),
			slog.Int("candidate_len", info.CandidateLen),
			slog.Int("matches", info.Matches),
		)
		if res != nil {
			res.Attempts = i + 1
			return res, nil
		}
	}

	err := &ExhaustedError{
		Attempts: x.cfg.MaxAttempts,
		MaxLen:   x.cfg.MaxLen(x.cfg.MaxAttempts - 1),
		Length:   length,
	}
	x.logger.Warn("extension exhausted",
		slog.Int("attempts", err.Attempts),
		slog.Int("max_len", err.MaxLen),
	)
	return nil, err
}

func (x *Extender) attempt(ctx context.Context, i int, seed trajectory.Trajectory, ens ensemble.FixedLength, maxLen int, seeds [2]int64) (*Result, Attempt, error) {
	info := Attempt{Index: i, MaxLen: maxLen}

	actx := ctx
	if x.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, x.cfg.AttemptTimeout)
		defer cancel()
	}
	expired := func() bool {
		return x.cfg.AttemptTimeout > 0 && ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded)
	}

	fw, bw, err := x.continuations(actx, seed, maxLen, seeds)
	if err != nil {
		if expired() {
			info.TimedOut = true
			return nil, info, errAttemptTimeout
		}
		return nil, info, err
	}

	candidate := Assemble(bw, seed, fw)
	info.CandidateLen = candidate.Len()

	matches := ens.Split(candidate)
	info.Matches = len(matches)
	if expired() {
		info.TimedOut = true
		return nil, info, errAttemptTimeout
	}

	for _, m := range matches {
		if m.Len() >= ens.Length() {
			return &Result{Trajectory: m, Candidate: candidate, MaxLen: maxLen}, info, nil
		}
	}
	return nil, info, nil
}

func (x *Extender) continuations(ctx context.Context, seed trajectory.Trajectory, maxLen int, seeds [2]int64) (fw, bw trajectory.Trajectory, err error) {
	fwReq := engine.Request{
		Start:     seed.Last(),
		Direction: engine.Forward,
		Stopping:  []engine.StoppingCondition{engine.MaxLength(maxLen)},
		Seed:      seeds[0],
	}
	bwReq := engine.Request{
		Start:     seed.First(),
		Direction: engine.Backward,
		Stopping:  []engine.StoppingCondition{engine.MaxLength(maxLen)},
		Seed:      seeds[1],
	}

	if !x.cfg.Concurrent {
		if fw, err = x.generate(ctx, fwReq); err != nil {
			return
		}
		bw, err = x.generate(ctx, bwReq)
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fw, err = x.generate(gctx, fwReq)
		return err
	})
	g.Go(func() error {
		var err error
		bw, err = x.generate(gctx, bwReq)
		return err
	})
	err = g.Wait()
	return
}

// generate normalizes engine errors: anything that is neither a context
// error nor already an engine failure is wrapped as one.
func (x *Extender) generate(ctx context.Context, req engine.Request) (trajectory.Trajectory, error) {
	t, err := x.eng.Generate(ctx, req)
	switch {
	case err == nil:
	case errors.Is(err, engine.ErrEngineFailure):
		return trajectory.Trajectory{}, err
	case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		return trajectory.Trajectory{}, err
	default:
		return trajectory.Trajectory{}, &engine.Failure{Direction: req.Direction, Err: err}
	}
	if t.IsEmpty() {
		return trajectory.Trajectory{}, &engine.Failure{Direction: req.Direction, Err: errors.New("empty continuation")}
	}
	return t, nil
}

// Assemble joins backward[:-1] + seed + forward[1:]. The backward
// continuation ends on seed's first frame and the forward one begins on
// seed's last frame, so neither shared frame is repeated.
func Assemble(backward, seed, forward trajectory.Trajectory) trajectory.Trajectory {
	return trajectory.Join(backward.Slice(0, -1), seed, forward.Slice(1, forward.Len()))
}
