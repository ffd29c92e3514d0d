// Package relax drives Monte Carlo energy minimisation of a spin field.
//
// A [Driver] repeatedly proposes a small random rotation of one spin,
// scores it with [hamiltonian.Model.LocalEnergy] and keeps it only when the
// energy drops:
//
//	Idle → Proposing → Evaluating → Accepted | Reverted → Proposing → … → Done
//
// With Temperature zero this is a greedy zero-temperature descent: moves
// with ΔE >= 0 are always reverted. A positive Temperature switches to the
// Metropolis rule and accepts uphill moves with probability exp(-ΔE/T).
//
// # Example
//
//	f, _ := lattice.New(32, 32)
//	m, _ := hamiltonian.New(f, hamiltonian.Params{J: 1, D: 0.3})
//	d := relax.New(rand.New(rand.NewSource(42)))
//	res, err := d.Relax(ctx, f, m, 100000, 0.1)
//
// # Thread Safety
//
// A run mutates its field in place and must own it exclusively until Run
// returns. Driver instances are NOT thread-safe; [Ensemble] runs several
// independent relaxations, each on its own clone of the field.
package relax
