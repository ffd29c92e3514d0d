package analysis

import (
	"math"

	"github.com/san-kum/spinlab/internal/lattice"
	"gonum.org/v1/gonum/spatial/r3"
)

// solidAngle returns the signed solid angle spanned by three unit vectors.
func solidAngle(a, b, c r3.Vec) float64 {
	num := r3.Dot(a, r3.Cross(b, c))
	den := 1 + r3.Dot(a, b) + r3.Dot(b, c) + r3.Dot(c, a)
	return 2 * math.Atan2(num, den)
}

// ChargeDensity returns the topological charge of every plaquette. Plaquette
// (i, j) has corners (i,j), (i+1,j), (i+1,j+1), (i,j+1); the result has
// shape (nx-1) x (ny-1) and is empty when either dimension is 1.
func ChargeDensity(f *lattice.Field) [][]float64 {
	nx, ny := f.Dims()
	if nx < 2 || ny < 2 {
		return nil
	}

	rho := make([][]float64, nx-1)
	for i := 0; i < nx-1; i++ {
		rho[i] = make([]float64, ny-1)
		for j := 0; j < ny-1; j++ {
			s1 := f.Spin(i, j)
			s2 := f.Spin(i+1, j)
			s3 := f.Spin(i+1, j+1)
			s4 := f.Spin(i, j+1)
			omega := solidAngle(s1, s2, s3) + solidAngle(s1, s3, s4)
			rho[i][j] = omega / (4 * math.Pi)
		}
	}
	return rho
}

// TopologicalCharge sums the charge density over the lattice. A uniform
// field gives 0 and an isolated skyrmion gives ±1.
func TopologicalCharge(f *lattice.Field) float64 {
	q := 0.0
	for _, row := range ChargeDensity(f) {
		for _, v := range row {
			q += v
		}
	}
	return q
}
