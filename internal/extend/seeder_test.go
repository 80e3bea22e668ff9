package extend_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pathsim/internal/cv"
	"github.com/san-kum/pathsim/internal/dynamo"
	"github.com/san-kum/pathsim/internal/ensemble"
	"github.com/san-kum/pathsim/internal/extend"
	"github.com/san-kum/pathsim/internal/trajectory"
	"github.com/san-kum/pathsim/internal/volume"
)

var _ = Describe("Seeder", func() {
	x := cv.Coordinate(0)
	start := trajectory.NewSnapshot(dynamo.State{0, 0}, 0)

	It("returns the last crossing into the target state", func() {
		s := &extend.Seeder{
			Engine: &lineEngine{},
			From:   volume.Range(x, math.Inf(-1), 0),
			To:     volume.Range(x, 10, math.Inf(1)),
		}

		seed, err := s.Run(context.Background(), start)
		Expect(err).NotTo(HaveOccurred())
		Expect(seed.Len()).To(Equal(11))
		Expect(seed.First().State[0]).To(Equal(0.0))
		Expect(seed.Last().State[0]).To(Equal(10.0))
	})

	It("fails with ErrNoTransition when the target is never reached", func() {
		s := &extend.Seeder{
			Engine:    &lineEngine{},
			From:      volume.Range(x, math.Inf(-1), 0),
			To:        volume.Range(x, 1e9, math.Inf(1)),
			MaxFrames: 50,
		}

		_, err := s.Run(context.Background(), start)
		Expect(err).To(MatchError(extend.ErrNoTransition))
	})

	It("stops once the run leaves its bound", func() {
		eng := &lineEngine{}
		s := &extend.Seeder{
			Engine: eng,
			From:   volume.Range(x, math.Inf(-1), 0),
			To:     volume.Range(x, 10, math.Inf(1)),
			Bound:  ensemble.AllInX{V: volume.Range(x, math.Inf(-1), 5)},
		}

		_, err := s.Run(context.Background(), start)
		Expect(err).To(MatchError(extend.ErrNoTransition))
		Expect(eng.lens).To(Equal([]int{7}))
	})

	It("bounds the run by MaxFrames by default", func() {
		eng := &lineEngine{}
		s := &extend.Seeder{
			Engine:    eng,
			From:      volume.Range(x, math.Inf(-1), 0),
			To:        volume.Range(x, 1e9, math.Inf(1)),
			MaxFrames: 50,
		}

		_, err := s.Run(context.Background(), start)
		Expect(err).To(MatchError(extend.ErrNoTransition))
		Expect(eng.lens).To(Equal([]int{50}))
	})

	It("requires both states", func() {
		s := &extend.Seeder{Engine: &lineEngine{}, From: volume.Full}
		_, err := s.Run(context.Background(), start)
		Expect(err).To(MatchError(extend.ErrInvalidConfig))
	})
})
