package extend_test

import (
	"context"
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pathsim/internal/cv"
	"github.com/san-kum/pathsim/internal/dynamo"
	"github.com/san-kum/pathsim/internal/engine"
	"github.com/san-kum/pathsim/internal/ensemble"
	"github.com/san-kum/pathsim/internal/extend"
	"github.com/san-kum/pathsim/internal/integrators"
	"github.com/san-kum/pathsim/internal/physics"
	"github.com/san-kum/pathsim/internal/trajectory"
	"github.com/san-kum/pathsim/internal/volume"
)

var _ = Describe("Extender", func() {
	var (
		ctx      context.Context
		eng      *lineEngine
		seed     trajectory.Trajectory
		attempts []extend.Attempt
	)

	newExtender := func(cfg extend.Config) *extend.Extender {
		return extend.New(eng, cfg, extend.WithAttemptHook(func(a extend.Attempt) {
			attempts = append(attempts, a)
		}))
	}

	BeforeEach(func() {
		ctx = context.Background()
		eng = &lineEngine{}
		seed = line(0, 50)
		attempts = nil
	})

	Context("when the ensemble first matches on the third attempt", func() {
		It("returns the first qualifying window with max_len 300", func() {
			ens := &scripted{L: 400, succeedOn: 2}

			res, err := newExtender(extend.DefaultConfig()).ExtendToFixedLength(ctx, seed, ens)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Attempts).To(Equal(3))
			Expect(res.MaxLen).To(Equal(300))
			Expect(res.Trajectory.Len()).To(Equal(400))
			Expect(res.Candidate.Len()).To(Equal(300 + 50 + 300 - 2))
			Expect(res.Trajectory.Equal(res.Candidate.Slice(1, 401))).To(BeTrue())
			Expect(eng.Calls()).To(Equal(6))
			Expect(eng.lens).To(Equal([]int{200, 200, 250, 250, 300, 300}))
		})
	})

	Context("with a fixed-length TPS ensemble", func() {
		It("grows until the backward side reaches state A", func() {
			x := cv.Coordinate(0)
			stateA := volume.Range(x, math.Inf(-1), -250)
			stateB := volume.Range(x, 100, math.Inf(1))
			ens, err := ensemble.NewFixedLengthTPS(400, stateA, stateB)
			Expect(err).NotTo(HaveOccurred())

			res, err := newExtender(extend.DefaultConfig()).ExtendToFixedLength(ctx, seed, ens)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Attempts).To(Equal(3))
			Expect(res.Trajectory.Len()).To(Equal(400))
			Expect(res.Trajectory.First().State[0]).To(Equal(-299.0))
			Expect(res.Trajectory.Last().State[0]).To(Equal(100.0))
			Expect(ens.Contains(res.Trajectory)).To(BeTrue())
			Expect(attempts).To(HaveLen(3))
			Expect(attempts[0].Matches).To(BeZero())
			Expect(attempts[1].Matches).To(BeZero())
		})
	})

	Context("when no attempt qualifies", func() {
		It("gives up after exactly MaxAttempts with growing max_len", func() {
			ens := &scripted{L: 400, succeedOn: -1}

			res, err := newExtender(extend.DefaultConfig()).ExtendToFixedLength(ctx, seed, ens)
			Expect(res).To(BeNil())
			Expect(err).To(MatchError(extend.ErrExtensionExhausted))

			var exhausted *extend.ExhaustedError
			Expect(errors.As(err, &exhausted)).To(BeTrue())
			Expect(exhausted.Attempts).To(Equal(5))
			Expect(exhausted.MaxLen).To(Equal(400))

			Expect(eng.Calls()).To(Equal(10))
			Expect(ens.splits).To(Equal(5))
			Expect(attempts).To(HaveLen(5))
			for i, a := range attempts {
				Expect(a.Index).To(Equal(i))
				Expect(a.MaxLen).To(Equal(200 + 50*i))
				Expect(a.CandidateLen).To(Equal(2*a.MaxLen + 50 - 2))
				if i > 0 {
					Expect(a.MaxLen).To(BeNumerically(">", attempts[i-1].MaxLen))
				}
			}
		})
	})

	Context("when the engine fails", func() {
		backwardFails := func(_ context.Context, _ int, req engine.Request) (trajectory.Trajectory, bool, error) {
			if req.Direction != engine.Backward {
				return trajectory.Trajectory{}, false, nil
			}
			return trajectory.Trajectory{}, true, &engine.Failure{Direction: engine.Backward, Frame: 3, Err: dynamo.ErrUnstable}
		}

		It("propagates a backward failure on attempt 0 without retrying", func() {
			eng.intercept = backwardFails
			ens := &scripted{L: 400, succeedOn: 0}

			_, err := newExtender(extend.DefaultConfig()).ExtendToFixedLength(ctx, seed, ens)
			Expect(err).To(MatchError(engine.ErrEngineFailure))
			Expect(errors.Is(err, dynamo.ErrUnstable)).To(BeTrue())

			var failure *engine.Failure
			Expect(errors.As(err, &failure)).To(BeTrue())
			Expect(failure.Direction).To(Equal(engine.Backward))

			Expect(eng.Calls()).To(Equal(2))
			Expect(ens.splits).To(BeZero())
		})

		It("propagates the failure when continuations run concurrently", func() {
			eng.intercept = backwardFails
			cfg := extend.DefaultConfig()
			cfg.Concurrent = true

			_, err := newExtender(cfg).ExtendToFixedLength(ctx, seed, &scripted{L: 400, succeedOn: 0})
			Expect(err).To(MatchError(engine.ErrEngineFailure))
			Expect(eng.Calls()).To(Equal(2))
		})

		It("treats a plain engine error as an engine failure", func() {
			boom := errors.New("boom")
			eng.intercept = func(context.Context, int, engine.Request) (trajectory.Trajectory, bool, error) {
				return trajectory.Trajectory{}, true, boom
			}

			_, err := newExtender(extend.DefaultConfig()).ExtendToFixedLength(ctx, seed, &scripted{L: 400})
			Expect(err).To(MatchError(engine.ErrEngineFailure))
			Expect(err).To(MatchError(boom))
			Expect(eng.Calls()).To(Equal(1))
		})

		It("rejects an empty continuation", func() {
			eng.intercept = func(context.Context, int, engine.Request) (trajectory.Trajectory, bool, error) {
				return trajectory.Trajectory{}, true, nil
			}

			_, err := newExtender(extend.DefaultConfig()).ExtendToFixedLength(ctx, seed, &scripted{L: 400})
			Expect(err).To(MatchError(engine.ErrEngineFailure))
		})
	})

	Context("with invalid input", func() {
		It("rejects an empty seed before calling the engine", func() {
			_, err := newExtender(extend.DefaultConfig()).ExtendToFixedLength(ctx, trajectory.Trajectory{}, &scripted{L: 400})
			Expect(err).To(MatchError(extend.ErrInvalidSeed))
			Expect(eng.Calls()).To(BeZero())
		})

		It("rejects a nil ensemble", func() {
			_, err := newExtender(extend.DefaultConfig()).ExtendToFixedLength(ctx, seed, nil)
			Expect(err).To(MatchError(extend.ErrInvalidSeed))
		})

		It("rejects a non-positive ensemble length", func() {
			_, err := newExtender(extend.DefaultConfig()).ExtendToFixedLength(ctx, seed, &scripted{L: 0})
			Expect(err).To(MatchError(extend.ErrInvalidSeed))
		})

		DescribeTable("rejects unusable schedules",
			func(mutate func(*extend.Config)) {
				cfg := extend.DefaultConfig()
				mutate(&cfg)
				_, err := newExtender(cfg).ExtendToFixedLength(ctx, seed, &scripted{L: 400})
				Expect(err).To(MatchError(extend.ErrInvalidConfig))
				Expect(eng.Calls()).To(BeZero())
			},
			Entry("base length", func(c *extend.Config) { c.BaseLength = 1 }),
			Entry("increment", func(c *extend.Config) { c.Increment = 0 }),
			Entry("attempts", func(c *extend.Config) { c.MaxAttempts = 0 }),
			Entry("timeout", func(c *extend.Config) { c.AttemptTimeout = -time.Second }),
		)
	})

	Context("with an attempt timeout", func() {
		It("counts an expired attempt as a miss and moves on", func() {
			eng.intercept = func(ctx context.Context, i int, _ engine.Request) (trajectory.Trajectory, bool, error) {
				if i != 0 {
					return trajectory.Trajectory{}, false, nil
				}
				<-ctx.Done()
				return trajectory.Trajectory{}, true, ctx.Err()
			}
			cfg := extend.DefaultConfig()
			cfg.AttemptTimeout = 20 * time.Millisecond
			ens := &scripted{L: 400, succeedOn: 0}

			res, err := newExtender(cfg).ExtendToFixedLength(ctx, seed, ens)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Attempts).To(Equal(2))
			Expect(res.MaxLen).To(Equal(250))
			Expect(attempts[0].TimedOut).To(BeTrue())
			Expect(attempts[1].TimedOut).To(BeFalse())
		})
	})

	Context("when the caller cancels", func() {
		It("returns the context error instead of exhausting", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			_, err := newExtender(extend.DefaultConfig()).ExtendToFixedLength(cctx, seed, &scripted{L: 400})
			Expect(err).To(MatchError(context.Canceled))
			Expect(errors.Is(err, extend.ErrExtensionExhausted)).To(BeFalse())
			Expect(errors.Is(err, engine.ErrEngineFailure)).To(BeFalse())
		})
	})
})

var _ = Describe("Assemble", func() {
	It("drops exactly the two shared frames", func() {
		seed := line(0, 50)
		bw := line(-199, 200)
		fw := line(49, 200)

		got := extend.Assemble(bw, seed, fw)
		Expect(got.Len()).To(Equal(bw.Len() + seed.Len() + fw.Len() - 2))
		Expect(got.First().State[0]).To(Equal(-199.0))
		Expect(got.Last().State[0]).To(Equal(248.0))
		for i := 1; i < got.Len(); i++ {
			Expect(got.At(i).State[0] - got.At(i - 1).State[0]).To(Equal(1.0))
		}
	})

	It("is idempotent", func() {
		seed, bw, fw := line(0, 10), line(-5, 6), line(9, 4)
		Expect(extend.Assemble(bw, seed, fw).Equal(extend.Assemble(bw, seed, fw))).To(BeTrue())
	})
})

var _ = Describe("Extender on a double well", func() {
	var (
		ens  *ensemble.FixedLengthTPS
		seed trajectory.Trajectory
		md   *engine.MDEngine
	)

	BeforeEach(func() {
		x := cv.Coordinate(0)
		stateA := volume.Range(x, math.Inf(-1), -0.5)
		stateB := volume.Range(x, 0.5, math.Inf(1))
		var err error
		ens, err = ensemble.NewFixedLengthTPS(400, stateA, stateB)
		Expect(err).NotTo(HaveOccurred())

		dw := physics.NewDoubleWell()
		hot, err := engine.NewMD(dw, func(s int64) dynamo.Integrator {
			return integrators.NewLangevin(0.5, 1.0, s)
		}, engine.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())

		seeder := &extend.Seeder{Engine: hot, From: stateA, To: stateB, Seed: 11}
		seed, err = seeder.Run(context.Background(), trajectory.NewSnapshot(dw.DefaultState(), 0))
		Expect(err).NotTo(HaveOccurred())
		Expect(seed.Len()).To(BeNumerically(">=", 2))

		md, err = engine.NewMD(dw, func(s int64) dynamo.Integrator {
			return integrators.NewLangevin(0.2, 1.0, s)
		}, engine.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
	})

	It("finds a member of the ensemble", func() {
		cfg := extend.DefaultConfig()
		cfg.Seed = 3
		res, err := extend.New(md, cfg).ExtendToFixedLength(context.Background(), seed, ens)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Trajectory.Len()).To(Equal(400))
		Expect(ens.Contains(res.Trajectory)).To(BeTrue())
	})

	It("is reproducible with or without concurrency", func() {
		cfg := extend.DefaultConfig()
		cfg.Seed = 3
		seq, err := extend.New(md, cfg).ExtendToFixedLength(context.Background(), seed, ens)
		Expect(err).NotTo(HaveOccurred())

		cfg.Concurrent = true
		par, err := extend.New(md, cfg).ExtendToFixedLength(context.Background(), seed, ens)
		Expect(err).NotTo(HaveOccurred())

		Expect(par.Attempts).To(Equal(seq.Attempts))
		Expect(par.Candidate.Equal(seq.Candidate)).To(BeTrue())
		Expect(par.Trajectory.Equal(seq.Trajectory)).To(BeTrue())
	})
})
