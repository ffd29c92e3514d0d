package hamiltonian

import (
	"fmt"
	"math"

	"github.com/san-kum/spinlab/internal/lattice"
	"gonum.org/v1/gonum/spatial/r3"
)

// DMIType selects the DMI vector assigned to each bond direction.
type DMIType string

const (
	// Bloch is bulk DMI: the DMI vector is the bond direction itself.
	Bloch DMIType = "bloch"
	// Neel is interfacial DMI: the DMI vector is ẑ × bond direction.
	Neel DMIType = "neel"
	// Planar uses ẑ for every bond, coupling only the in-plane components.
	Planar DMIType = "planar"
)

// DMITypes lists the supported conventions.
var DMITypes = []DMIType{Bloch, Neel, Planar}

var (
	unitX = r3.Vec{X: 1}
	unitY = r3.Vec{Y: 1}
	unitZ = r3.Vec{Z: 1}
)

// BondVectors returns the DMI vectors of the +x and +y bonds.
func (t DMIType) BondVectors() (dx, dy r3.Vec, err error) {
	switch t {
	case Bloch, "":
		return unitX, unitY, nil
	case Neel:
		return r3.Cross(unitZ, unitX), r3.Cross(unitZ, unitY), nil
	case Planar:
		return unitZ, unitZ, nil
	}
	return r3.Vec{}, r3.Vec{}, fmt.Errorf("%w: %q", ErrUnknownDMI, string(t))
}

// Params are the physical constants of the Hamiltonian.
type Params struct {
	B   r3.Vec  // external field
	K   float64 // uniaxial anisotropy constant
	U   r3.Vec  // anisotropy axis, normalised internally
	J   float64 // exchange constant
	D   float64 // DMI constant
	DMI DMIType
}

// Model is a Hamiltonian bound to a single field. Parameters are fixed
// at construction.
type Model struct {
	field  *lattice.Field
	params Params
	u      r3.Vec
	dx, dy r3.Vec
}

// New binds p to field.
func New(field *lattice.Field, p Params) (*Model, error) {
	if field == nil {
		return nil, ErrNilField
	}
	vecs := []struct {
		name string
		v    r3.Vec
	}{{"B", p.B}, {"u", p.U}}
	for _, pv := range vecs {
		if !lattice.IsFinite(pv.v) {
			return nil, fmt.Errorf("%w: %s = %v", ErrInvalidParam, pv.name, pv.v)
		}
	}
	scalars := []struct {
		name string
		v    float64
	}{{"K", p.K}, {"J", p.J}, {"D", p.D}}
	for _, pv := range scalars {
		if math.IsNaN(pv.v) || math.IsInf(pv.v, 0) {
			return nil, fmt.Errorf("%w: %s = %v", ErrInvalidParam, pv.name, pv.v)
		}
	}

	m := &Model{field: field, params: p}

	u, err := lattice.Normalize(p.U)
	switch {
	case err == nil:
		m.u = u
	case p.K != 0:
		return nil, fmt.Errorf("%w: anisotropy axis is zero with K = %v", ErrInvalidParam, p.K)
	}

	m.dx, m.dy, err = p.DMI.BondVectors()
	if err != nil {
		return nil, err
	}
	if m.params.DMI == "" {
		m.params.DMI = Bloch
	}
	return m, nil
}

// Field returns the field the model reads.
func (m *Model) Field() *lattice.Field { return m.field }

// Params returns the model parameters.
func (m *Model) Params() Params { return m.params }

// Axis returns the normalised anisotropy axis.
func (m *Model) Axis() r3.Vec { return m.u }

// Breakdown holds each energy term of a configuration.
type Breakdown struct {
	Zeeman     float64 `json:"zeeman" yaml:"zeeman"`
	Anisotropy float64 `json:"anisotropy" yaml:"anisotropy"`
	Exchange   float64 `json:"exchange" yaml:"exchange"`
	DMI        float64 `json:"dmi" yaml:"dmi"`
}

// Total returns the sum of the terms.
func (b Breakdown) Total() float64 {
	return b.Zeeman + b.Anisotropy + b.Exchange + b.DMI
}

// TotalEnergy returns Zeeman + anisotropy + exchange + DMI.
func (m *Model) TotalEnergy() float64 {
	return m.Terms().Total()
}

// Terms evaluates all four terms in one pass over the lattice.
func (m *Model) Terms() Breakdown {
	var b Breakdown
	nx, ny := m.field.Dims()
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			s := m.field.Spin(i, j)
			b.Zeeman -= r3.Dot(s, m.params.B)
			a := r3.Dot(s, m.u)
			b.Anisotropy -= m.params.K * a * a
			if i < nx-1 {
				r := m.field.Spin(i+1, j)
				b.Exchange -= m.params.J * r3.Dot(s, r)
				b.DMI -= m.params.D * triple(s, r, m.dx)
			}
			if j < ny-1 {
				r := m.field.Spin(i, j+1)
				b.Exchange -= m.params.J * r3.Dot(s, r)
				b.DMI -= m.params.D * triple(s, r, m.dy)
			}
		}
	}
	return b
}

// Zeeman returns -Σ s·B.
func (m *Model) Zeeman() float64 {
	e := 0.0
	m.eachSite(func(s r3.Vec) {
		e -= r3.Dot(s, m.params.B)
	})
	return e
}

// Anisotropy returns -K Σ (s·û)².
func (m *Model) Anisotropy() float64 {
	sum := 0.0
	m.eachSite(func(s r3.Vec) {
		a := r3.Dot(s, m.u)
		sum += a * a
	})
	return -m.params.K * sum
}

func (m *Model) eachSite(fn func(s r3.Vec)) {
	nx, ny := m.field.Dims()
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			fn(m.field.Spin(i, j))
		}
	}
}

// Exchange returns -J Σ s_p·s_q over bonds counted once.
func (m *Model) Exchange() float64 {
	sum := 0.0
	m.eachBond(func(p, q, _ r3.Vec) {
		sum += r3.Dot(p, q)
	})
	return -m.params.J * sum
}

// DMI returns -D Σ (s_p × s_q)·d_pq over bonds counted once, with q the
// +x or +y neighbour of p.
func (m *Model) DMI() float64 {
	sum := 0.0
	m.eachBond(func(p, q, d r3.Vec) {
		sum += triple(p, q, d)
	})
	return -m.params.D * sum
}

func (m *Model) eachBond(fn func(p, q, d r3.Vec)) {
	nx, ny := m.field.Dims()
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			s := m.field.Spin(i, j)
			if i < nx-1 {
				fn(s, m.field.Spin(i+1, j), m.dx)
			}
			if j < ny-1 {
				fn(s, m.field.Spin(i, j+1), m.dy)
			}
		}
	}
}

// LocalEnergy returns the terms of the Hamiltonian that involve site
// (i, j): its Zeeman and anisotropy energy plus the exchange and DMI
// energy of its bonds to existing neighbours.
func (m *Model) LocalEnergy(i, j int) (float64, error) {
	onsite, bonds, err := m.SiteEnergy(i, j)
	if err != nil {
		return 0, err
	}
	return onsite + bonds, nil
}

// SiteEnergy splits LocalEnergy into the single-site part and the bond
// part. Every bond is shared by two sites, so summing onsite + bonds/2
// over the lattice reproduces TotalEnergy.
func (m *Model) SiteEnergy(i, j int) (onsite, bonds float64, err error) {
	if !m.field.Contains(i, j) {
		_, err = m.field.At(i, j)
		return 0, 0, err
	}
	onsite, bonds = m.siteEnergy(i, j)
	return onsite, bonds, nil
}

// EnergyAt is LocalEnergy without the bounds check, for loops whose
// coordinates are already in range. Like lattice.Field.Spin it panics
// otherwise.
func (m *Model) EnergyAt(i, j int) float64 {
	onsite, bonds := m.siteEnergy(i, j)
	return onsite + bonds
}

func (m *Model) siteEnergy(i, j int) (onsite, bonds float64) {
	nx, ny := m.field.Dims()
	s := m.field.Spin(i, j)

	a := r3.Dot(s, m.u)
	onsite = -r3.Dot(s, m.params.B) - m.params.K*a*a

	var exch, dmi float64
	if i > 0 {
		p := m.field.Spin(i-1, j)
		exch += r3.Dot(p, s)
		dmi += triple(p, s, m.dx)
	}
	if i < nx-1 {
		q := m.field.Spin(i+1, j)
		exch += r3.Dot(s, q)
		dmi += triple(s, q, m.dx)
	}
	if j > 0 {
		p := m.field.Spin(i, j-1)
		exch += r3.Dot(p, s)
		dmi += triple(p, s, m.dy)
	}
	if j < ny-1 {
		q := m.field.Spin(i, j+1)
		exch += r3.Dot(s, q)
		dmi += triple(s, q, m.dy)
	}
	bonds = -m.params.J*exch - m.params.D*dmi
	return onsite, bonds
}

// triple returns (p × q)·d.
func triple(p, q, d r3.Vec) float64 {
	return d.X*(p.Y*q.Z-p.Z*q.Y) + d.Y*(p.Z*q.X-p.X*q.Z) + d.Z*(p.X*q.Y-p.Y*q.X)
}
