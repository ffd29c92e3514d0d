package relax

import (
	"time"

	"github.com/san-kum/spinlab/internal/lattice"
	"gonum.org/v1/gonum/spatial/r3"
)

// Outcome is the fate of a single proposal.
type Outcome int

const (
	Accepted Outcome = iota
	Reverted
	// Degenerate marks a perturbation that cancelled the spin; it is
	// redrawn without touching the field.
	Degenerate
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Reverted:
		return "reverted"
	case Degenerate:
		return "degenerate"
	}
	return "unknown"
}

// Proposal describes one iteration of the Monte Carlo loop.
type Proposal struct {
	Attempt int
	Site    lattice.Site
	Prev    r3.Vec
	Next    r3.Vec
	DeltaE  float64
	Outcome Outcome
}

// Observer is notified after every proposal.
type Observer interface {
	OnProposal(p Proposal)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(p Proposal)

func (f ObserverFunc) OnProposal(p Proposal) { f(p) }

// Metric aggregates proposals into a single number reported in Result.
type Metric interface {
	Name() string
	Observe(p Proposal)
	Value() float64
	Reset()
}

// Config controls a relaxation run.
type Config struct {
	// Target is the number of accepted moves to reach.
	Target int
	// StepSize bounds each component of the random perturbation.
	StepSize float64
	// Temperature of the Metropolis rule; zero means strict descent.
	Temperature float64
	// MaxAttempts caps the number of proposals; zero means unbounded.
	MaxAttempts int
	// SampleEvery records the total energy every n accepted moves; zero
	// disables the trace.
	SampleEvery int
}

func DefaultConfig() Config {
	return Config{
		Target:      1000,
		StepSize:    0.1,
		SampleEvery: 1,
	}
}

// Result summarises a run.
type Result struct {
	Attempts      int
	Accepted      int
	Degenerate    int
	InitialEnergy float64
	FinalEnergy   float64
	// Energies holds the initial energy followed by one sample every
	// Config.SampleEvery accepted moves.
	Energies []float64
	Duration time.Duration
	Metrics  map[string]float64
}

// AcceptanceRate returns Accepted / Attempts.
func (r *Result) AcceptanceRate() float64 {
	if r.Attempts == 0 {
		return 0
	}
	return float64(r.Accepted) / float64(r.Attempts)
}
