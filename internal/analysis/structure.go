package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/spinlab/internal/lattice"
)

// StructureFactor returns S(k) = (|Sx(k)|² + |Sy(k)|² + |Sz(k)|²) / N on the
// nx x ny grid of discrete wavevectors, indexed like the field.
func StructureFactor(f *lattice.Field) [][]float64 {
	nx, ny := f.Dims()
	comps := [3][][]float64{}
	for c := range comps {
		comps[c] = make([][]float64, nx)
		for i := range comps[c] {
			comps[c][i] = make([]float64, ny)
		}
	}
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			s := f.Spin(i, j)
			comps[0][i][j] = s.X
			comps[1][i][j] = s.Y
			comps[2][i][j] = s.Z
		}
	}

	n := float64(nx * ny)
	sq := make([][]float64, nx)
	for i := range sq {
		sq[i] = make([]float64, ny)
	}
	for _, grid := range comps {
		ft := fft.FFT2Real(grid)
		for i := range ft {
			for j, v := range ft[i] {
				a := cmplx.Abs(v)
				sq[i][j] += a * a / n
			}
		}
	}
	return sq
}

// Peak is the strongest non-zero wavevector of a structure factor.
type Peak struct {
	Kx, Ky    int     // signed integer wavenumbers
	Qx, Qy    float64 // 2πK/n
	Intensity float64
}

// Wavelength is the real-space period of the peak in lattice units.
func (p Peak) Wavelength() float64 {
	q := math.Hypot(p.Qx, p.Qy)
	if q == 0 {
		return math.Inf(1)
	}
	return 2 * math.Pi / q
}

// PeakWavevector finds the maximum of sq excluding k = 0. The first maximum
// in scan order wins ties. A 1x1 grid yields the zero Peak.
func PeakWavevector(sq [][]float64) Peak {
	nx := len(sq)
	if nx == 0 {
		return Peak{}
	}
	ny := len(sq[0])

	best := Peak{Intensity: -1}
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			if i == 0 && j == 0 {
				continue
			}
			if sq[i][j] > best.Intensity {
				best = Peak{Kx: fold(i, nx), Ky: fold(j, ny), Intensity: sq[i][j]}
			}
		}
	}
	if best.Intensity < 0 {
		return Peak{}
	}
	best.Qx = 2 * math.Pi * float64(best.Kx) / float64(nx)
	best.Qy = 2 * math.Pi * float64(best.Ky) / float64(ny)
	return best
}

// fold maps an FFT index to the signed range (-n/2, n/2].
func fold(k, n int) int {
	if k > n/2 {
		return k - n
	}
	return k
}
