package lattice

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// Tolerance is the absolute deviation from unit norm a stored spin may have.
const Tolerance = 1e-9

// degenerateNorm is the smallest norm that is still normalised.
const degenerateNorm = 1e-300

// Up is the default initial spin.
var Up = r3.Vec{X: 0, Y: 0, Z: 1}

// Site is a lattice coordinate.
type Site struct {
	I, J int
}

// Field is a dense nx × ny array of unit spins stored row-major.
type Field struct {
	nx, ny int
	spins  []r3.Vec
}

// New creates a field with every spin pointing along +z.
func New(nx, ny int) (*Field, error) {
	return NewUniform(nx, ny, Up)
}

// NewUniform creates a field with every site set to value. The value is
// normalised when its norm is not already 1.
func NewUniform(nx, ny int, value r3.Vec) (*Field, error) {
	if err := checkDims(nx, ny); err != nil {
		return nil, err
	}
	if !IsFinite(value) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidVector, value)
	}
	if n := r3.Norm(value); math.Abs(n-1) > Tolerance {
		unit, err := Normalize(value)
		if err != nil {
			return nil, fmt.Errorf("%w: initial value %v", ErrInvalidVector, value)
		}
		value = unit
	}

	f := &Field{nx: nx, ny: ny, spins: make([]r3.Vec, nx*ny)}
	for k := range f.spins {
		f.spins[k] = value
	}
	return f, nil
}

// FromSpins rebuilds a field from row-major spin data, normalising each site.
func FromSpins(nx, ny int, spins []r3.Vec) (*Field, error) {
	if err := checkDims(nx, ny); err != nil {
		return nil, err
	}
	if len(spins) != nx*ny {
		return nil, fmt.Errorf("%w: %d spins for %dx%d lattice", ErrInvalidDimension, len(spins), nx, ny)
	}

	f := &Field{nx: nx, ny: ny, spins: make([]r3.Vec, len(spins))}
	for k, s := range spins {
		if !IsFinite(s) {
			return nil, fmt.Errorf("%w: site %d: %v", ErrInvalidVector, k, s)
		}
		unit, err := Normalize(s)
		if err != nil {
			return nil, fmt.Errorf("site %d: %w", k, err)
		}
		f.spins[k] = unit
	}
	return f, nil
}

func checkDims(nx, ny int) error {
	if nx <= 0 || ny <= 0 {
		return fmt.Errorf("%w: got (%d, %d)", ErrInvalidDimension, nx, ny)
	}
	return nil
}

// Dims returns (nx, ny).
func (f *Field) Dims() (nx, ny int) { return f.nx, f.ny }

// Len returns the number of sites.
func (f *Field) Len() int { return len(f.spins) }

// Contains reports whether (i, j) lies on the lattice.
func (f *Field) Contains(i, j int) bool {
	return i >= 0 && i < f.nx && j >= 0 && j < f.ny
}

func (f *Field) index(i, j int) int { return i*f.ny + j }

func (f *Field) check(i, j int) error {
	if !f.Contains(i, j) {
		return fmt.Errorf("%w: (%d, %d) not in [0,%d)x[0,%d)", ErrIndexOutOfRange, i, j, f.nx, f.ny)
	}
	return nil
}

// At returns the spin at (i, j).
func (f *Field) At(i, j int) (r3.Vec, error) {
	if err := f.check(i, j); err != nil {
		return r3.Vec{}, err
	}
	return f.spins[f.index(i, j)], nil
}

// Spin returns the spin at (i, j) without a bounds check beyond the
// backing slice. It is intended for hot loops that have already
// validated their coordinates.
func (f *Field) Spin(i, j int) r3.Vec {
	return f.spins[i*f.ny+j]
}

// Set stores the normalised form of v at (i, j).
func (f *Field) Set(i, j int, v r3.Vec) error {
	_, err := f.Replace(i, j, v)
	return err
}

// Move records a single-site mutation so that it can be undone exactly.
type Move struct {
	site       Site
	prev, next r3.Vec
}

// Site returns the mutated coordinate.
func (m Move) Site() Site { return m.site }

// Prev returns the spin stored before the mutation.
func (m Move) Prev() r3.Vec { return m.prev }

// Next returns the spin stored by the mutation.
func (m Move) Next() r3.Vec { return m.next }

// Replace stores the normalised form of v at (i, j) and returns a Move
// that restores the previous spin bit for bit.
func (f *Field) Replace(i, j int, v r3.Vec) (Move, error) {
	if err := f.check(i, j); err != nil {
		return Move{}, err
	}
	unit, err := Normalize(v)
	if err != nil {
		return Move{}, fmt.Errorf("site (%d, %d): %w", i, j, err)
	}
	k := f.index(i, j)
	m := Move{site: Site{I: i, J: j}, prev: f.spins[k], next: unit}
	f.spins[k] = unit
	return m, nil
}

// Undo restores the spin a Move replaced.
func (f *Field) Undo(m Move) {
	f.spins[f.index(m.site.I, m.site.J)] = m.prev
}

// Randomize overwrites every site with a vector whose components are drawn
// uniformly from [-1, 1], then normalises it. Draws that land on the zero
// vector are repeated.
func (f *Field) Randomize(rng *rand.Rand) {
	for k := range f.spins {
		for {
			v := r3.Vec{
				X: 2*rng.Float64() - 1,
				Y: 2*rng.Float64() - 1,
				Z: 2*rng.Float64() - 1,
			}
			if unit, err := Normalize(v); err == nil {
				f.spins[k] = unit
				break
			}
		}
	}
}

// Normalize rescales every site to unit norm.
func (f *Field) Normalize() {
	for k, s := range f.spins {
		f.spins[k] = r3.Scale(1/r3.Norm(s), s)
	}
}

// Mean returns the component-wise mean spin (the reduced magnetisation).
func (f *Field) Mean() r3.Vec {
	var sum r3.Vec
	for _, s := range f.spins {
		sum = r3.Add(sum, s)
	}
	return r3.Scale(1/float64(len(f.spins)), sum)
}

// MagnitudeAt returns the norm of the spin at (i, j).
func (f *Field) MagnitudeAt(i, j int) (float64, error) {
	s, err := f.At(i, j)
	if err != nil {
		return 0, err
	}
	return r3.Norm(s), nil
}

// Magnitudes returns the per-site norms in row-major order.
func (f *Field) Magnitudes() []float64 {
	out := make([]float64, len(f.spins))
	for k, s := range f.spins {
		out[k] = r3.Norm(s)
	}
	return out
}

// Neighbors returns the existing lattice sites left, right, below and
// above (i, j), in that order. Edge sites have fewer neighbours.
func (f *Field) Neighbors(i, j int) ([]Site, error) {
	if err := f.check(i, j); err != nil {
		return nil, err
	}
	out := make([]Site, 0, 4)
	if i > 0 {
		out = append(out, Site{I: i - 1, J: j})
	}
	if i < f.nx-1 {
		out = append(out, Site{I: i + 1, J: j})
	}
	if j > 0 {
		out = append(out, Site{I: i, J: j - 1})
	}
	if j < f.ny-1 {
		out = append(out, Site{I: i, J: j + 1})
	}
	return out, nil
}

// Spins returns a row-major copy of the field. Index (i, j) lives at i*ny+j.
func (f *Field) Spins() []r3.Vec {
	out := make([]r3.Vec, len(f.spins))
	copy(out, f.spins)
	return out
}

// Clone returns an independent copy of the field.
func (f *Field) Clone() *Field {
	return &Field{nx: f.nx, ny: f.ny, spins: f.Spins()}
}

// Normalize returns v scaled to unit norm.
func Normalize(v r3.Vec) (r3.Vec, error) {
	n := r3.Norm(v)
	if n < degenerateNorm || math.IsNaN(n) || math.IsInf(n, 0) {
		return r3.Vec{}, ErrDegenerateVector
	}
	return r3.Scale(1/n, v), nil
}

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// VecFromSlice converts a length-3 slice into a vector.
func VecFromSlice(v []float64) (r3.Vec, error) {
	if len(v) != 3 {
		return r3.Vec{}, fmt.Errorf("%w: length %d", ErrInvalidVector, len(v))
	}
	out := r3.Vec{X: v[0], Y: v[1], Z: v[2]}
	if !IsFinite(out) {
		return r3.Vec{}, fmt.Errorf("%w: %v", ErrInvalidVector, v)
	}
	return out, nil
}
