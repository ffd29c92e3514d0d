package relax

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/san-kum/spinlab/internal/hamiltonian"
	"github.com/san-kum/spinlab/internal/lattice"
)

// Member is one independent run of an Ensemble.
type Member struct {
	Seed   int64
	Field  *lattice.Field
	Result *Result
	Err    error
}

// Ensemble relaxes independent copies of one starting field, each with its
// own seed, concurrently. Observers passed through opts are shared by all
// members and must be safe for concurrent use.
type Ensemble struct {
	params    hamiltonian.Params
	cfg       Config
	numRuns   int
	seedStart int64
	randomize bool
	opts      []Option
}

func NewEnsemble(params hamiltonian.Params, cfg Config, numRuns int, seedStart int64, opts ...Option) *Ensemble {
	return &Ensemble{params: params, cfg: cfg, numRuns: numRuns, seedStart: seedStart, opts: opts}
}

// Randomized makes every member randomise its copy with its own seed
// before relaxing.
func (e *Ensemble) Randomized(on bool) *Ensemble {
	e.randomize = on
	return e
}

// Run relaxes all members and returns them in seed order. It fails if the
// run count is not positive, initial is nil, or a member could not be set
// up; per-run errors are kept on the member.
func (e *Ensemble) Run(ctx context.Context, initial *lattice.Field) ([]Member, error) {
	if e.numRuns <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNonPositiveRuns, e.numRuns)
	}
	if initial == nil {
		return nil, ErrFieldMismatch
	}

	members := make([]Member, e.numRuns)
	setupErrs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			seed := e.seedStart + int64(idx)
			rng := rand.New(rand.NewSource(seed))
			f := initial.Clone()
			if e.randomize {
				f.Randomize(rng)
			}

			model, err := hamiltonian.New(f, e.params)
			if err != nil {
				setupErrs[idx] = err
				return
			}

			d := New(rng, e.opts...)
			res, err := d.Run(ctx, f, model, e.cfg)
			members[idx] = Member{Seed: seed, Field: f, Result: res, Err: err}
		}(i)
	}

	wg.Wait()

	for _, err := range setupErrs {
		if err != nil {
			return nil, err
		}
	}
	return members, nil
}

// Best returns the index of the member with the lowest final energy, or -1
// if no member produced a result.
func Best(members []Member) int {
	best := -1
	for i, m := range members {
		if m.Result == nil {
			continue
		}
		if best < 0 || m.Result.FinalEnergy < members[best].Result.FinalEnergy {
			best = i
		}
	}
	return best
}
