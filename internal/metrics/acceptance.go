package metrics

import "github.com/san-kum/spinlab/internal/relax"

// AcceptanceRate is the fraction of proposals that were kept.
type AcceptanceRate struct {
	name     string
	accepted int
	samples  int
}

func NewAcceptanceRate() *AcceptanceRate {
	return &AcceptanceRate{
		name: "acceptance_rate",
	}
}

func (a *AcceptanceRate) Name() string {
	return a.name
}

func (a *AcceptanceRate) Observe(p relax.Proposal) {
	if p.Outcome == relax.Accepted {
		a.accepted++
	}
	a.samples++
}

func (a *AcceptanceRate) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return float64(a.accepted) / float64(a.samples)
}

func (a *AcceptanceRate) Reset() {
	a.accepted = 0
	a.samples = 0
}

// Degenerate counts proposals whose perturbed vector could not be normalised.
type Degenerate struct {
	name  string
	count int
}

func NewDegenerate() *Degenerate {
	return &Degenerate{name: "degenerate"}
}

func (d *Degenerate) Name() string { return d.name }

func (d *Degenerate) Observe(p relax.Proposal) {
	if p.Outcome == relax.Degenerate {
		d.count++
	}
}

func (d *Degenerate) Value() float64 { return float64(d.count) }

func (d *Degenerate) Reset() { d.count = 0 }

// Default returns a fresh set of the standard run metrics.
func Default() []relax.Metric {
	return []relax.Metric{
		NewAcceptanceRate(),
		NewMeanDeltaE(),
		NewEnergyDrop(),
		NewDegenerate(),
	}
}
