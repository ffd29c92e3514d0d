// Package lattice holds the classical spin field of a two-dimensional
// rectangular lattice.
//
// A [Field] stores one unit 3-vector per site of an nx × ny grid:
//
//   - sites are addressed by (i, j) with 0 <= i < nx and 0 <= j < ny
//   - every stored spin has Euclidean norm 1 within [Tolerance]
//   - adjacency is 4-connected with open (free) boundaries
//
// # Example
//
//	f, _ := lattice.New(32, 32)
//	f.Randomize(rand.New(rand.NewSource(1)))
//	m := f.Mean()
//
// # Thread Safety
//
// Field is NOT safe for concurrent mutation. A relaxation run holds the
// field exclusively until it returns; use [Field.Clone] to hand a copy to
// other goroutines.
package lattice
