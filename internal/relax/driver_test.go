package relax_test

import (
	"context"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/spinlab/internal/hamiltonian"
	"github.com/san-kum/spinlab/internal/lattice"
	"github.com/san-kum/spinlab/internal/relax"
)

func mustField(nx, ny int) *lattice.Field {
	f, err := lattice.New(nx, ny)
	Expect(err).NotTo(HaveOccurred())
	return f
}

func mustModel(f *lattice.Field, p hamiltonian.Params) *hamiltonian.Model {
	m, err := hamiltonian.New(f, p)
	Expect(err).NotTo(HaveOccurred())
	return m
}

var skyrmionParams = hamiltonian.Params{
	B:   r3.Vec{Z: 0.2},
	K:   0.1,
	U:   r3.Vec{Z: 1},
	J:   1,
	D:   0.6,
	DMI: hamiltonian.Bloch,
}

var _ = Describe("Driver", func() {
	var (
		ctx context.Context
		rng *rand.Rand
	)

	BeforeEach(func() {
		ctx = context.Background()
		rng = rand.New(rand.NewSource(42))
	})

	Describe("validation", func() {
		It("rejects a zero target and leaves the field untouched", func() {
			f := mustField(3, 3)
			f.Randomize(rng)
			before := f.Spins()
			m := mustModel(f, skyrmionParams)

			res, err := relax.New(rng).Relax(ctx, f, m, 0, 0.1)
			Expect(err).To(MatchError(relax.ErrNonPositiveTarget))
			Expect(res).To(BeNil())
			Expect(f.Spins()).To(Equal(before))
		})

		It("rejects a negative target", func() {
			f := mustField(2, 2)
			_, err := relax.New(rng).Relax(ctx, f, mustModel(f, skyrmionParams), -5, 0.1)
			Expect(err).To(MatchError(relax.ErrNonPositiveTarget))
		})

		It("rejects a non-positive step size", func() {
			f := mustField(2, 2)
			_, err := relax.New(rng).Relax(ctx, f, mustModel(f, skyrmionParams), 10, 0)
			Expect(err).To(MatchError(relax.ErrInvalidStepSize))
		})

		It("rejects a negative temperature", func() {
			f := mustField(2, 2)
			cfg := relax.DefaultConfig()
			cfg.Temperature = -1
			_, err := relax.New(rng).Run(ctx, f, mustModel(f, skyrmionParams), cfg)
			Expect(err).To(MatchError(relax.ErrInvalidTemperature))
		})

		It("rejects a model bound to another field", func() {
			f := mustField(2, 2)
			other := mustField(2, 2)
			_, err := relax.New(rng).Relax(ctx, f, mustModel(other, skyrmionParams), 10, 0.1)
			Expect(err).To(MatchError(relax.ErrFieldMismatch))
		})
	})

	Describe("a strict descent run", func() {
		It("reaches exactly the target number of accepted moves", func() {
			f := mustField(6, 6)
			f.Randomize(rng)
			m := mustModel(f, skyrmionParams)

			res, err := relax.New(rng).Relax(ctx, f, m, 500, 0.2)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Accepted).To(Equal(500))
			Expect(res.Attempts).To(BeNumerically(">=", res.Accepted))
			Expect(res.AcceptanceRate()).To(BeNumerically(">", 0))
			Expect(res.AcceptanceRate()).To(BeNumerically("<=", 1))
		})

		It("never increases the energy", func() {
			f := mustField(5, 5)
			f.Randomize(rng)
			m := mustModel(f, skyrmionParams)
			start := m.TotalEnergy()

			res, err := relax.New(rng).Relax(ctx, f, m, 300, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.InitialEnergy).To(BeNumerically("~", start, 1e-9))
			Expect(res.FinalEnergy).To(BeNumerically("<", start))
			Expect(res.FinalEnergy).To(BeNumerically("~", m.TotalEnergy(), 1e-9))

			Expect(res.Energies).To(HaveLen(301))
			for k := 1; k < len(res.Energies); k++ {
				Expect(res.Energies[k]).To(BeNumerically("<", res.Energies[k-1]))
			}
			Expect(res.Energies[len(res.Energies)-1]).To(BeNumerically("~", res.FinalEnergy, 1e-9))
		})

		It("keeps every spin normalised", func() {
			f := mustField(7, 4)
			f.Randomize(rng)
			m := mustModel(f, skyrmionParams)

			_, err := relax.New(rng).Relax(ctx, f, m, 1000, 0.5)
			Expect(err).NotTo(HaveOccurred())
			for _, n := range f.Magnitudes() {
				Expect(n).To(BeNumerically("~", 1, lattice.Tolerance))
			}
		})

		It("accepts only strictly downhill moves and restores reverted spins exactly", func() {
			f := mustField(4, 4)
			f.Randomize(rng)
			m := mustModel(f, skyrmionParams)

			var accepted, reverted int
			obs := relax.ObserverFunc(func(p relax.Proposal) {
				current, err := f.At(p.Site.I, p.Site.J)
				Expect(err).NotTo(HaveOccurred())
				switch p.Outcome {
				case relax.Accepted:
					accepted++
					Expect(p.DeltaE).To(BeNumerically("<", 0))
					Expect(current).To(Equal(p.Next))
				case relax.Reverted:
					reverted++
					Expect(p.DeltaE).To(BeNumerically(">=", 0))
					Expect(current).To(Equal(p.Prev))
				}
			})

			res, err := relax.New(rng, relax.WithObserver(obs)).Relax(ctx, f, m, 200, 0.3)
			Expect(err).NotTo(HaveOccurred())
			Expect(accepted).To(Equal(200))
			Expect(accepted + reverted + res.Degenerate).To(Equal(res.Attempts))
		})

		It("lowers the exchange energy of an anti-aligned 2x2 lattice", func() {
			f := mustField(2, 2)
			Expect(f.Set(0, 0, r3.Vec{Z: 1})).To(Succeed())
			Expect(f.Set(1, 1, r3.Vec{Z: 1})).To(Succeed())
			Expect(f.Set(0, 1, r3.Vec{Z: -1})).To(Succeed())
			Expect(f.Set(1, 0, r3.Vec{Z: -1})).To(Succeed())
			m := mustModel(f, hamiltonian.Params{J: 1})

			before := m.Exchange()
			Expect(before).To(BeNumerically("~", 4, 1e-12))

			_, err := relax.New(rng).Relax(ctx, f, m, 2000, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Exchange()).To(BeNumerically("<", before))
		})

		It("is reproducible for a fixed seed", func() {
			run := func() []r3.Vec {
				r := rand.New(rand.NewSource(99))
				f := mustField(4, 3)
				f.Randomize(r)
				_, err := relax.New(r).Relax(ctx, f, mustModel(f, skyrmionParams), 150, 0.2)
				Expect(err).NotTo(HaveOccurred())
				return f.Spins()
			}
			Expect(run()).To(Equal(run()))
		})
	})

	Describe("degenerate proposals", func() {
		It("redraws a perturbation that cancels the spin instead of failing", func() {
			f := mustField(1, 1)
			m := mustModel(f, hamiltonian.Params{B: r3.Vec{Z: -1}})

			// Site (0,0), then δ = (0, 0, -1) against s0 = (0, 0, 1).
			src := &scriptedSource{
				script:   []int64{0, 0, 1 << 62, 1 << 62, 0},
				fallback: rand.NewSource(7),
			}
			cfg := relax.DefaultConfig()
			cfg.Target = 1
			cfg.StepSize = 1

			var outcomes []relax.Outcome
			obs := relax.ObserverFunc(func(p relax.Proposal) { outcomes = append(outcomes, p.Outcome) })

			res, err := relax.New(rand.New(src), relax.WithObserver(obs)).Run(ctx, f, m, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Degenerate).To(Equal(1))
			Expect(res.Accepted).To(Equal(1))
			Expect(outcomes[0]).To(Equal(relax.Degenerate))
			Expect(res.Attempts).To(Equal(len(outcomes)))
			Expect(res.Attempts).To(Equal(res.Accepted + res.Degenerate + countOf(outcomes, relax.Reverted)))
			for _, n := range f.Magnitudes() {
				Expect(n).To(BeNumerically("~", 1, lattice.Tolerance))
			}
			Expect(res.FinalEnergy).To(BeNumerically("<", res.InitialEnergy))
		})
	})

	Describe("stopping early", func() {
		It("honours a cancelled context between iterations", func() {
			f := mustField(3, 3)
			f.Randomize(rng)
			before := f.Spins()
			m := mustModel(f, skyrmionParams)

			cctx, cancel := context.WithCancel(ctx)
			cancel()

			res, err := relax.New(rng).Relax(cctx, f, m, 100, 0.1)
			Expect(err).To(MatchError(context.Canceled))
			Expect(relax.IsStopped(err)).To(BeTrue())
			Expect(res).NotTo(BeNil())
			Expect(res.Attempts).To(Equal(0))
			Expect(f.Spins()).To(Equal(before))
		})

		It("stops at the attempt budget when no move can lower the energy", func() {
			f := mustField(1, 1)
			m := mustModel(f, hamiltonian.Params{B: r3.Vec{Z: 1}})
			Expect(m.TotalEnergy()).To(BeNumerically("~", -1, 1e-12))

			cfg := relax.DefaultConfig()
			cfg.Target = 10
			cfg.MaxAttempts = 100

			res, err := relax.New(rng).Run(ctx, f, m, cfg)
			Expect(err).To(MatchError(relax.ErrAttemptBudget))

			var runErr *relax.RunError
			Expect(err).To(BeAssignableToTypeOf(runErr))
			Expect(res.Attempts).To(Equal(100))
			Expect(res.Accepted).To(Equal(0))

			s, _ := f.At(0, 0)
			Expect(s).To(Equal(lattice.Up))
		})
	})

	Describe("thermal acceptance", func() {
		It("accepts uphill moves at positive temperature", func() {
			f := mustField(1, 1)
			m := mustModel(f, hamiltonian.Params{B: r3.Vec{Z: 1}})

			cfg := relax.DefaultConfig()
			cfg.Target = 50
			cfg.Temperature = 10
			cfg.MaxAttempts = 10000

			res, err := relax.New(rng).Run(ctx, f, m, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Accepted).To(Equal(50))
			Expect(res.FinalEnergy).To(BeNumerically(">", -1))
		})
	})

	Describe("metrics", func() {
		It("reports registered metrics by name", func() {
			f := mustField(3, 3)
			f.Randomize(rng)
			m := mustModel(f, skyrmionParams)

			counter := &countingMetric{}
			res, err := relax.New(rng, relax.WithMetric(counter)).Relax(ctx, f, m, 40, 0.2)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Metrics).To(HaveKeyWithValue("accepted_count", 40.0))
		})
	})
})

type countingMetric struct{ n int }

func (c *countingMetric) Name() string { return "accepted_count" }
func (c *countingMetric) Observe(p relax.Proposal) {
	if p.Outcome == relax.Accepted {
		c.n++
	}
}
func (c *countingMetric) Value() float64 { return float64(c.n) }
func (c *countingMetric) Reset()         { c.n = 0 }

// scriptedSource replays script before handing over to fallback.
type scriptedSource struct {
	script   []int64
	fallback rand.Source
}

func (s *scriptedSource) Int63() int64 {
	if len(s.script) > 0 {
		v := s.script[0]
		s.script = s.script[1:]
		return v
	}
	return s.fallback.Int63()
}

func (s *scriptedSource) Seed(seed int64) { s.fallback.Seed(seed) }

func countOf(outcomes []relax.Outcome, o relax.Outcome) int {
	n := 0
	for _, x := range outcomes {
		if x == o {
			n++
		}
	}
	return n
}
