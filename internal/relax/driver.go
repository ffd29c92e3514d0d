package relax

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/san-kum/spinlab/internal/hamiltonian"
	"github.com/san-kum/spinlab/internal/lattice"
	"gonum.org/v1/gonum/spatial/r3"
)

// cancelCheckEvery is how many proposals run between context checks.
const cancelCheckEvery = 1024

// Driver runs the Monte Carlo loop with an injected random source.
type Driver struct {
	rng       *rand.Rand
	logger    *slog.Logger
	metrics   []Metric
	observers []Observer
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the structured logger for run summaries.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithObserver registers an observer notified after every proposal.
func WithObserver(o Observer) Option {
	return func(d *Driver) {
		d.observers = append(d.observers, o)
	}
}

// WithMetric registers a metric reported in Result.Metrics.
func WithMetric(m Metric) Option {
	return func(d *Driver) {
		d.metrics = append(d.metrics, m)
	}
}

// New creates a driver drawing from rng. A nil rng is seeded from the clock.
func New(rng *rand.Rand, opts ...Option) *Driver {
	d := &Driver{rng: rng}
	for _, opt := range opts {
		opt(d)
	}
	if d.rng == nil {
		d.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return d
}

func (d *Driver) AddMetric(m Metric)     { d.metrics = append(d.metrics, m) }
func (d *Driver) AddObserver(o Observer) { d.observers = append(d.observers, o) }

// Relax runs until target moves have been accepted, using strict descent.
func (d *Driver) Relax(ctx context.Context, field *lattice.Field, model *hamiltonian.Model, target int, stepSize float64) (*Result, error) {
	cfg := DefaultConfig()
	cfg.Target = target
	cfg.StepSize = stepSize
	return d.Run(ctx, field, model, cfg)
}

// Run relaxes field in place. On cancellation or an exhausted attempt
// budget it returns the partial result together with a *RunError; the
// field is left in a valid, fully applied state either way.
func (d *Driver) Run(ctx context.Context, field *lattice.Field, model *hamiltonian.Model, cfg Config) (*Result, error) {
	if err := validate(field, model, cfg); err != nil {
		return nil, err
	}

	for _, m := range d.metrics {
		m.Reset()
	}

	nx, ny := field.Dims()
	energy := model.TotalEnergy()
	res := &Result{
		InitialEnergy: energy,
		Metrics:       make(map[string]float64),
	}
	if cfg.SampleEvery > 0 {
		res.Energies = make([]float64, 0, cfg.Target/cfg.SampleEvery+1)
		res.Energies = append(res.Energies, energy)
	}

	d.logger.Info("relaxation started",
		"nx", nx, "ny", ny,
		"target", cfg.Target,
		"step_size", cfg.StepSize,
		"temperature", cfg.Temperature,
		"energy", energy,
	)
	start := time.Now()

	var stopErr error
	for res.Accepted < cfg.Target {
		if res.Attempts%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				stopErr = err
				break
			}
		}
		if cfg.MaxAttempts > 0 && res.Attempts >= cfg.MaxAttempts {
			stopErr = ErrAttemptBudget
			break
		}
		res.Attempts++

		p := d.step(field, model, nx, ny, cfg)
		p.Attempt = res.Attempts
		switch p.Outcome {
		case Accepted:
			res.Accepted++
			energy += p.DeltaE
			if cfg.SampleEvery > 0 && res.Accepted%cfg.SampleEvery == 0 {
				res.Energies = append(res.Energies, energy)
			}
		case Degenerate:
			res.Degenerate++
			d.logger.Debug("degenerate proposal redrawn", "attempt", p.Attempt, "i", p.Site.I, "j", p.Site.J)
		}

		for _, m := range d.metrics {
			m.Observe(p)
		}
		for _, o := range d.observers {
			o.OnProposal(p)
		}
	}

	res.Duration = time.Since(start)
	res.FinalEnergy = model.TotalEnergy()
	for _, m := range d.metrics {
		res.Metrics[m.Name()] = m.Value()
	}

	if stopErr != nil {
		d.logger.Warn("relaxation stopped early",
			"attempts", res.Attempts,
			"accepted", res.Accepted,
			"energy", res.FinalEnergy,
			"error", stopErr,
		)
		return res, &RunError{Attempts: res.Attempts, Accepted: res.Accepted, Wrapped: stopErr}
	}

	d.logger.Info("relaxation finished",
		"attempts", res.Attempts,
		"accepted", res.Accepted,
		"degenerate", res.Degenerate,
		"initial_energy", res.InitialEnergy,
		"final_energy", res.FinalEnergy,
		"duration", res.Duration,
	)
	return res, nil
}

// step performs one propose/evaluate/decide cycle.
func (d *Driver) step(field *lattice.Field, model *hamiltonian.Model, nx, ny int, cfg Config) Proposal {
	i, j := d.rng.Intn(nx), d.rng.Intn(ny)
	s0 := field.Spin(i, j)
	delta := r3.Vec{
		X: (2*d.rng.Float64() - 1) * cfg.StepSize,
		Y: (2*d.rng.Float64() - 1) * cfg.StepSize,
		Z: (2*d.rng.Float64() - 1) * cfg.StepSize,
	}
	p := Proposal{Site: lattice.Site{I: i, J: j}, Prev: s0}

	s1, err := lattice.Normalize(r3.Add(s0, delta))
	if err != nil {
		p.Outcome = Degenerate
		return p
	}

	e0 := model.EnergyAt(i, j)
	mv, err := field.Replace(i, j, s1)
	if err != nil {
		p.Outcome = Degenerate
		return p
	}
	e1 := model.EnergyAt(i, j)

	p.Next = mv.Next()
	p.DeltaE = e1 - e0
	if d.accept(p.DeltaE, cfg.Temperature) {
		p.Outcome = Accepted
		return p
	}
	field.Undo(mv)
	p.Outcome = Reverted
	return p
}

func (d *Driver) accept(deltaE, temperature float64) bool {
	if deltaE < 0 {
		return true
	}
	if temperature == 0 {
		return false
	}
	return d.rng.Float64() < math.Exp(-deltaE/temperature)
}

func validate(field *lattice.Field, model *hamiltonian.Model, cfg Config) error {
	if cfg.Target <= 0 {
		return fmt.Errorf("%w: got %d", ErrNonPositiveTarget, cfg.Target)
	}
	if !(cfg.StepSize > 0) || math.IsInf(cfg.StepSize, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidStepSize, cfg.StepSize)
	}
	if !(cfg.Temperature >= 0) || math.IsInf(cfg.Temperature, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidTemperature, cfg.Temperature)
	}
	if field == nil || model == nil || model.Field() != field {
		return ErrFieldMismatch
	}
	return nil
}

// IsStopped reports whether err ended a run early with a usable partial result.
func IsStopped(err error) bool {
	var re *RunError
	return errors.As(err, &re)
}
