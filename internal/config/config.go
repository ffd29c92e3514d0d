package config

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/spinlab/internal/hamiltonian"
	"github.com/san-kum/spinlab/internal/lattice"
	"github.com/san-kum/spinlab/internal/relax"
)

const (
	DefaultSize     = 16
	DefaultTarget   = 10000
	DefaultStepSize = 0.1
	DefaultJ        = 1.0
	DefaultD        = 0.3
	DefaultField    = 0.05
)

const (
	InitRandom  = "random"
	InitUniform = "uniform"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Seed        int64             `yaml:"seed" json:"seed"`
	Lattice     LatticeConfig     `yaml:"lattice" json:"lattice"`
	Hamiltonian HamiltonianConfig `yaml:"hamiltonian" json:"hamiltonian"`
	Relax       RelaxConfig       `yaml:"relax" json:"relax"`
}

type LatticeConfig struct {
	NX    int       `yaml:"nx" json:"nx"`
	NY    int       `yaml:"ny" json:"ny"`
	Init  string    `yaml:"init" json:"init"`
	Value []float64 `yaml:"value,flow" json:"value"`
}

type HamiltonianConfig struct {
	B   []float64 `yaml:"b,flow" json:"b"`
	K   float64   `yaml:"k" json:"k"`
	U   []float64 `yaml:"u,flow" json:"u"`
	J   float64   `yaml:"j" json:"j"`
	D   float64   `yaml:"d" json:"d"`
	DMI string    `yaml:"dmi" json:"dmi"`
}

type RelaxConfig struct {
	Target      int     `yaml:"target" json:"target"`
	StepSize    float64 `yaml:"step_size" json:"step_size"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
	MaxAttempts int     `yaml:"max_attempts" json:"max_attempts"`
	SampleEvery int     `yaml:"sample_every" json:"sample_every"`
}

func DefaultConfig() *Config {
	return &Config{
		Lattice: LatticeConfig{
			NX:    DefaultSize,
			NY:    DefaultSize,
			Init:  InitRandom,
			Value: []float64{0, 0, 1},
		},
		Hamiltonian: HamiltonianConfig{
			B:   []float64{0, 0, DefaultField},
			U:   []float64{0, 0, 1},
			J:   DefaultJ,
			D:   DefaultD,
			DMI: string(hamiltonian.Bloch),
		},
		Relax: RelaxConfig{
			Target:      DefaultTarget,
			StepSize:    DefaultStepSize,
			SampleEvery: 10,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy, so presets can be customised safely.
func (c *Config) Clone() *Config {
	out := *c
	out.Lattice.Value = append([]float64(nil), c.Lattice.Value...)
	out.Hamiltonian.B = append([]float64(nil), c.Hamiltonian.B...)
	out.Hamiltonian.U = append([]float64(nil), c.Hamiltonian.U...)
	return &out
}

// Validate reports every problem at once, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	var problems []string

	if c.Lattice.NX <= 0 || c.Lattice.NY <= 0 {
		problems = append(problems, fmt.Sprintf("lattice: dimensions must be positive, got %dx%d", c.Lattice.NX, c.Lattice.NY))
	}
	switch c.Lattice.Init {
	case InitRandom, "":
	case InitUniform:
		if _, err := lattice.VecFromSlice(c.Lattice.Value); err != nil {
			problems = append(problems, fmt.Sprintf("lattice.value: %v", err))
		}
	default:
		problems = append(problems, fmt.Sprintf("lattice.init: unknown mode %q", c.Lattice.Init))
	}

	if _, err := c.Params(); err != nil {
		problems = append(problems, err.Error())
	}

	if c.Relax.Target <= 0 {
		problems = append(problems, fmt.Sprintf("relax.target: must be positive, got %d", c.Relax.Target))
	}
	if c.Relax.StepSize <= 0 {
		problems = append(problems, fmt.Sprintf("relax.step_size: must be positive, got %v", c.Relax.StepSize))
	}
	if c.Relax.Temperature < 0 {
		problems = append(problems, fmt.Sprintf("relax.temperature: must be non-negative, got %v", c.Relax.Temperature))
	}
	if c.Relax.MaxAttempts < 0 || c.Relax.SampleEvery < 0 {
		problems = append(problems, "relax: max_attempts and sample_every must be non-negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Params converts the hamiltonian section. Empty vectors mean zero.
func (c *Config) Params() (hamiltonian.Params, error) {
	h := c.Hamiltonian
	b, err := optionalVec(h.B)
	if err != nil {
		return hamiltonian.Params{}, fmt.Errorf("hamiltonian.b: %w", err)
	}
	u, err := optionalVec(h.U)
	if err != nil {
		return hamiltonian.Params{}, fmt.Errorf("hamiltonian.u: %w", err)
	}

	if h.K != 0 && r3.Norm(u) == 0 {
		return hamiltonian.Params{}, fmt.Errorf("hamiltonian.u: %w: anisotropy needs a non-zero axis", lattice.ErrInvalidVector)
	}

	dmi := hamiltonian.DMIType(h.DMI)
	if _, _, err := dmi.BondVectors(); err != nil {
		return hamiltonian.Params{}, fmt.Errorf("hamiltonian.dmi: %w", err)
	}
	return hamiltonian.Params{B: b, K: h.K, U: u, J: h.J, D: h.D, DMI: dmi}, nil
}

func (c *Config) RelaxConfig() relax.Config {
	return relax.Config{
		Target:      c.Relax.Target,
		StepSize:    c.Relax.StepSize,
		Temperature: c.Relax.Temperature,
		MaxAttempts: c.Relax.MaxAttempts,
		SampleEvery: c.Relax.SampleEvery,
	}
}

// NewField builds the initial field. Random initialisation draws from rng.
func (c *Config) NewField(rng *rand.Rand) (*lattice.Field, error) {
	switch c.Lattice.Init {
	case InitUniform:
		v, err := lattice.VecFromSlice(c.Lattice.Value)
		if err != nil {
			return nil, err
		}
		return lattice.NewUniform(c.Lattice.NX, c.Lattice.NY, v)
	case InitRandom, "":
		f, err := lattice.New(c.Lattice.NX, c.Lattice.NY)
		if err != nil {
			return nil, err
		}
		f.Randomize(rng)
		return f, nil
	default:
		return nil, fmt.Errorf("%w: unknown init mode %q", ErrInvalidConfig, c.Lattice.Init)
	}
}

func optionalVec(s []float64) (r3.Vec, error) {
	if len(s) == 0 {
		return r3.Vec{}, nil
	}
	return lattice.VecFromSlice(s)
}
