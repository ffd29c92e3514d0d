package relax_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/spinlab/internal/hamiltonian"
	"github.com/san-kum/spinlab/internal/relax"
)

var _ = Describe("Ensemble", func() {
	It("relaxes every member independently and picks the lowest energy", func() {
		start := mustField(4, 4)
		cfg := relax.DefaultConfig()
		cfg.Target = 100
		cfg.StepSize = 0.3

		members, err := relax.NewEnsemble(skyrmionParams, cfg, 4, 10).
			Randomized(true).
			Run(context.Background(), start)
		Expect(err).NotTo(HaveOccurred())
		Expect(members).To(HaveLen(4))

		for i, m := range members {
			Expect(m.Err).NotTo(HaveOccurred())
			Expect(m.Seed).To(Equal(int64(10 + i)))
			Expect(m.Result.Accepted).To(Equal(100))
			Expect(m.Field).NotTo(BeIdenticalTo(start))
		}
		Expect(members[0].Field.Spins()).NotTo(Equal(members[1].Field.Spins()))

		best := relax.Best(members)
		Expect(best).To(BeNumerically(">=", 0))
		for _, m := range members {
			Expect(members[best].Result.FinalEnergy).To(BeNumerically("<=", m.Result.FinalEnergy))
		}

		for _, s := range start.Spins() {
			Expect(s.Z).To(Equal(1.0))
		}
	})

	It("rejects a non-positive run count", func() {
		for _, n := range []int{0, -1} {
			members, err := relax.NewEnsemble(hamiltonian.Params{J: 1}, relax.DefaultConfig(), n, 0).
				Run(context.Background(), mustField(2, 2))
			Expect(err).To(MatchError(relax.ErrNonPositiveRuns))
			Expect(members).To(BeNil())
		}
	})

	It("rejects a nil starting field", func() {
		_, err := relax.NewEnsemble(hamiltonian.Params{J: 1}, relax.DefaultConfig(), 2, 0).
			Run(context.Background(), nil)
		Expect(err).To(MatchError(relax.ErrFieldMismatch))
	})

	It("reports no best member when nothing ran", func() {
		Expect(relax.Best(nil)).To(Equal(-1))
		Expect(relax.Best([]relax.Member{{Seed: 1}})).To(Equal(-1))
	})

	It("keeps per-member stop errors on the member", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		members, err := relax.NewEnsemble(skyrmionParams, relax.DefaultConfig(), 2, 0).Run(ctx, mustField(3, 3))
		Expect(err).NotTo(HaveOccurred())
		for _, m := range members {
			Expect(relax.IsStopped(m.Err)).To(BeTrue())
			Expect(m.Result).NotTo(BeNil())
		}
	})
})
