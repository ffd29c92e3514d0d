package main

import (
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/spinlab/internal/config"
)

func parsedRunCmd(t *testing.T, args ...string) (*cobra.Command, *runOptions) {
	t.Helper()
	var o runOptions
	cmd := &cobra.Command{Use: "test"}
	addRunFlags(cmd, &o)
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatal(err)
	}
	return cmd, &o
}

func TestResolveConfig_Defaults(t *testing.T) {
	cmd, o := parsedRunCmd(t)
	cfg, err := resolveConfig(cmd, o)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Lattice.NX != config.DefaultSize || cfg.Relax.Target != config.DefaultTarget {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Seed == 0 {
		t.Error("expected a clock seed")
	}
}

func TestResolveConfig_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	file := config.GetPreset("helix")
	file.Lattice.NX = 40
	file.Relax.Target = 123
	file.Seed = 9
	if err := config.Save(path, file); err != nil {
		t.Fatal(err)
	}

	cmd, o := parsedRunCmd(t, "--preset", "skyrmion", "--config", path, "--target", "77", "--bz", "0.4")
	cfg, err := resolveConfig(cmd, o)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Lattice.NX != 40 {
		t.Errorf("config file should override the preset, got nx=%d", cfg.Lattice.NX)
	}
	if cfg.Relax.Target != 77 {
		t.Errorf("changed flag should override the file, got target=%d", cfg.Relax.Target)
	}
	if cfg.Seed != 9 {
		t.Errorf("expected seed from file, got %d", cfg.Seed)
	}
	if len(cfg.Hamiltonian.B) != 3 || cfg.Hamiltonian.B[2] != 0.4 {
		t.Errorf("expected bz flag applied, got %v", cfg.Hamiltonian.B)
	}
	// Unchanged flags keep the file's values.
	if cfg.Hamiltonian.D != file.Hamiltonian.D {
		t.Errorf("expected d=%v from file, got %v", file.Hamiltonian.D, cfg.Hamiltonian.D)
	}
}

func TestResolveConfig_PresetOnly(t *testing.T) {
	cmd, o := parsedRunCmd(t, "--preset", "easy_axis", "--k", "0.9")
	cfg, err := resolveConfig(cmd, o)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Lattice.Init != config.InitUniform || cfg.Hamiltonian.K != 0.9 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestResolveConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown preset", []string{"--preset", "nope"}},
		{"missing file", []string{"--config", "/nonexistent/run.yaml"}},
		{"zero target", []string{"--target", "0"}},
		{"bad dmi", []string{"--dmi", "twisted"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, o := parsedRunCmd(t, tt.args...)
			if _, err := resolveConfig(cmd, o); err == nil {
				t.Error("expected an error")
			}
		})
	}

	cmd, o := parsedRunCmd(t, "--step", "-1")
	if _, err := resolveConfig(cmd, o); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("parseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := parseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"run", "list", "show", "plot", "export-csv", "export-json", "svg", "analyze", "live", "bench", "ensemble", "presets"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("missing command %q", name)
		}
	}
}
