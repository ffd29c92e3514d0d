package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/spinlab/internal/relax"
)

// Collector exports proposal outcomes as Prometheus series. It implements
// relax.Observer and is safe to share between concurrent runs.
type Collector struct {
	proposals *prometheus.CounterVec
	accepted  prometheus.Histogram
}

func NewCollector() *Collector {
	return &Collector{
		proposals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spinlab_proposals_total",
				Help: "Total number of Monte Carlo proposals by outcome",
			},
			[]string{"outcome"},
		),
		accepted: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "spinlab_accepted_delta_energy",
				Help:    "Magnitude of the energy change of accepted moves",
				Buckets: prometheus.ExponentialBuckets(1e-6, 10, 8),
			},
		),
	}
}

// Register adds the collector's series to reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	if err := reg.Register(c.proposals); err != nil {
		return err
	}
	return reg.Register(c.accepted)
}

func (c *Collector) OnProposal(p relax.Proposal) {
	c.proposals.WithLabelValues(p.Outcome.String()).Inc()
	if p.Outcome == relax.Accepted {
		d := p.DeltaE
		if d < 0 {
			d = -d
		}
		c.accepted.Observe(d)
	}
}
