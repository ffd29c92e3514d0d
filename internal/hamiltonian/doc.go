// Package hamiltonian scores spin configurations on a [lattice.Field].
//
// The energy of a configuration is the sum of four terms:
//
//	E = -Σ s·B  -  K Σ (s·û)²  -  J Σ⟨p,q⟩ s_p·s_q  -  D Σ⟨p,q⟩ (s_p × s_q)·d_pq
//
// where ⟨p,q⟩ runs over nearest-neighbour bonds counted once and d_pq is
// the DMI vector of the bond, fixed by the [DMIType].
//
// [Model.LocalEnergy] returns only the terms that involve one site. It
// costs O(1) regardless of the lattice size and is what relaxation drivers
// use to score a single-site move.
//
// A Model never mutates the field it is bound to.
package hamiltonian
