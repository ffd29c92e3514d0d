// Package analysis provides observables of a relaxed spin field.
//
// The package includes:
//
//   - [TopologicalCharge]: skyrmion number via the Berg–Lüscher lattice solid angle
//   - [ChargeDensity]: per-plaquette solid angle divided by 4π
//   - [StructureFactor]: spin structure factor S(q) from a 2D FFT
//   - [PeakWavevector]: dominant non-zero wavevector of S(q)
//   - [TraceStats]: summary of an energy trace
//   - [Summarize]: all of the above in one report
//
// # Skyrmion Detection
//
// A relaxed field with |Q| close to an integer n carries n skyrmions:
//
//	q := analysis.TopologicalCharge(field)
//	if math.Abs(q) > 0.5 {
//	    // at least one skyrmion survived relaxation
//	}
package analysis
