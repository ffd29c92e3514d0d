package metrics

import "github.com/san-kum/spinlab/internal/relax"

// MeanDeltaE is the mean energy change of accepted moves.
type MeanDeltaE struct {
	name    string
	sum     float64
	samples int
}

func NewMeanDeltaE() *MeanDeltaE {
	return &MeanDeltaE{
		name: "mean_delta_e",
	}
}

func (m *MeanDeltaE) Name() string { return m.name }

func (m *MeanDeltaE) Observe(p relax.Proposal) {
	if p.Outcome != relax.Accepted {
		return
	}
	m.sum += p.DeltaE
	m.samples++
}

func (m *MeanDeltaE) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanDeltaE) Reset() {
	m.sum = 0
	m.samples = 0
}

// EnergyDrop is the total energy released by accepted moves. It is
// positive for a run that lowered the energy.
type EnergyDrop struct {
	name string
	drop float64
}

func NewEnergyDrop() *EnergyDrop {
	return &EnergyDrop{name: "energy_drop"}
}

func (e *EnergyDrop) Name() string { return e.name }

func (e *EnergyDrop) Observe(p relax.Proposal) {
	if p.Outcome == relax.Accepted {
		e.drop -= p.DeltaE
	}
}

func (e *EnergyDrop) Value() float64 { return e.drop }

func (e *EnergyDrop) Reset() { e.drop = 0 }
