package analysis

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/spinlab/internal/lattice"
)

// Stats summarises an energy trace.
type Stats struct {
	Samples int     `json:"samples"`
	Initial float64 `json:"initial"`
	Final   float64 `json:"final"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	Drop    float64 `json:"drop"`
}

// TraceStats computes Stats for trace. An empty trace gives the zero value.
func TraceStats(trace []float64) Stats {
	if len(trace) == 0 {
		return Stats{}
	}
	mean, std := stat.MeanStdDev(trace, nil)
	if len(trace) == 1 {
		std = 0
	}
	return Stats{
		Samples: len(trace),
		Initial: trace[0],
		Final:   trace[len(trace)-1],
		Min:     floats.Min(trace),
		Max:     floats.Max(trace),
		Mean:    mean,
		StdDev:  std,
		Drop:    trace[0] - trace[len(trace)-1],
	}
}

// Report bundles the observables printed by the analyze command.
type Report struct {
	Magnetization r3.Vec  `json:"magnetization"`
	Charge        float64 `json:"charge"`
	Peak          Peak    `json:"peak"`
	Trace         Stats   `json:"trace"`
}

// Summarize analyses a field and, if non-empty, its energy trace.
func Summarize(f *lattice.Field, trace []float64) Report {
	return Report{
		Magnetization: f.Mean(),
		Charge:        TopologicalCharge(f),
		Peak:          PeakWavevector(StructureFactor(f)),
		Trace:         TraceStats(trace),
	}
}
