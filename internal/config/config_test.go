package config

import (
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/spinlab/internal/hamiltonian"
	"github.com/san-kum/spinlab/internal/lattice"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Lattice.NX <= 0 || cfg.Lattice.NY <= 0 {
		t.Error("lattice dimensions should be positive")
	}
	if cfg.Relax.StepSize <= 0 {
		t.Error("step size should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("skyrmion")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Hamiltonian.D != 0.6 {
		t.Errorf("expected D 0.6, got %f", cfg.Hamiltonian.D)
	}

	cfg.Hamiltonian.B[2] = 99
	if Presets["skyrmion"].Hamiltonian.B[2] == 99 {
		t.Error("modifying a preset copy must not change the preset")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("presets not sorted: %v", names)
		}
	}
}

func TestPresetsAreValid(t *testing.T) {
	for _, name := range ListPresets() {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero width", func(c *Config) { c.Lattice.NX = 0 }, "dimensions"},
		{"bad init", func(c *Config) { c.Lattice.Init = "checkerboard" }, "lattice.init"},
		{"short uniform value", func(c *Config) {
			c.Lattice.Init = InitUniform
			c.Lattice.Value = []float64{0, 1}
		}, "lattice.value"},
		{"short field", func(c *Config) { c.Hamiltonian.B = []float64{1} }, "hamiltonian.b"},
		{"axis missing", func(c *Config) {
			c.Hamiltonian.K = 1
			c.Hamiltonian.U = nil
		}, "hamiltonian.u"},
		{"unknown dmi", func(c *Config) { c.Hamiltonian.DMI = "chiral" }, "hamiltonian.dmi"},
		{"zero target", func(c *Config) { c.Relax.Target = 0 }, "relax.target"},
		{"zero step", func(c *Config) { c.Relax.StepSize = 0 }, "relax.step_size"},
		{"negative temperature", func(c *Config) { c.Relax.Temperature = -1 }, "relax.temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lattice.NY = -1
	cfg.Relax.Target = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "dimensions") || !strings.Contains(err.Error(), "relax.target") {
		t.Errorf("expected both problems in %q", err)
	}
}

func TestParams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hamiltonian.DMI = "neel"
	p, err := cfg.Params()
	if err != nil {
		t.Fatal(err)
	}
	if p.DMI != hamiltonian.Neel {
		t.Errorf("expected neel, got %s", p.DMI)
	}
	if p.B.Z != DefaultField {
		t.Errorf("expected Bz %v, got %v", DefaultField, p.B.Z)
	}
	if _, err := hamiltonian.New(mustField(t, cfg), p); err != nil {
		t.Errorf("params should build a model: %v", err)
	}
}

func TestRelaxConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Relax.Temperature = 0.5
	rc := cfg.RelaxConfig()
	if rc.Target != cfg.Relax.Target || rc.StepSize != cfg.Relax.StepSize || rc.Temperature != 0.5 {
		t.Errorf("unexpected relax config %+v", rc)
	}
}

func TestNewField(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lattice.Init = InitUniform
	cfg.Lattice.Value = []float64{0, 3, 4}

	f := mustField(t, cfg)
	s, _ := f.At(0, 0)
	if math.Abs(s.Y-0.6) > 1e-12 || math.Abs(s.Z-0.8) > 1e-12 {
		t.Errorf("expected normalised (0, 0.6, 0.8), got %v", s)
	}

	cfg.Lattice.Init = InitRandom
	a, _ := cfg.NewField(rand.New(rand.NewSource(3)))
	b, _ := cfg.NewField(rand.New(rand.NewSource(3)))
	sa, _ := a.At(2, 2)
	sb, _ := b.At(2, 2)
	if sa != sb {
		t.Error("random init should be deterministic for a fixed seed")
	}

	cfg.Lattice.NX = 0
	if _, err := cfg.NewField(rand.New(rand.NewSource(1))); !errors.Is(err, lattice.ErrInvalidDimension) {
		t.Errorf("expected ErrInvalidDimension, got %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := GetPreset("easy_axis")
	cfg.Seed = 7

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Seed != 7 || got.Hamiltonian.K != 0.5 || got.Lattice.Init != InitUniform {
		t.Errorf("round trip lost fields: %+v", got)
	}
}

func TestLoad_KeepsDefaultsForMissingSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	doc := "seed: 3\nrelax:\n  target: 50\n"
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Seed != 3 || got.Relax.Target != 50 {
		t.Errorf("expected seed 3 and target 50, got %d and %d", got.Seed, got.Relax.Target)
	}
	if got.Lattice.NX != DefaultSize || got.Relax.StepSize != DefaultStepSize {
		t.Errorf("missing keys should keep defaults, got %+v", got)
	}
}

func mustField(t *testing.T, cfg *Config) *lattice.Field {
	t.Helper()
	f, err := cfg.NewField(rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	return f
}
