// Package metrics provides run statistics for the relaxation driver.
//
// AcceptanceRate, MeanDeltaE, EnergyDrop and Degenerate implement relax.Metric and are reset at the
// start of every run; they are not safe for concurrent use. Collector
// implements relax.Observer and feeds Prometheus counters, so a single
// Collector can be shared across an ensemble.
package metrics
