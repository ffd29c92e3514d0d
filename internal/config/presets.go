package config

import "sort"

// Presets are named starting points for common spin textures.
var Presets = map[string]*Config{
	"ferromagnet": {
		Lattice:     LatticeConfig{NX: 16, NY: 16, Init: InitRandom},
		Hamiltonian: HamiltonianConfig{J: 1, DMI: "bloch"},
		Relax:       RelaxConfig{Target: 20000, StepSize: 0.2, SampleEvery: 20},
	},
	"skyrmion": {
		Lattice: LatticeConfig{NX: 32, NY: 32, Init: InitRandom},
		Hamiltonian: HamiltonianConfig{
			B: []float64{0, 0, 0.25}, J: 1, D: 0.6, DMI: "bloch",
		},
		Relax: RelaxConfig{Target: 200000, StepSize: 0.1, SampleEvery: 100},
	},
	"neel_skyrmion": {
		Lattice: LatticeConfig{NX: 32, NY: 32, Init: InitRandom},
		Hamiltonian: HamiltonianConfig{
			B: []float64{0, 0, 0.25}, J: 1, D: 0.6, DMI: "neel",
		},
		Relax: RelaxConfig{Target: 200000, StepSize: 0.1, SampleEvery: 100},
	},
	"helix": {
		Lattice:     LatticeConfig{NX: 32, NY: 8, Init: InitRandom},
		Hamiltonian: HamiltonianConfig{J: 1, D: 0.8, DMI: "bloch"},
		Relax:       RelaxConfig{Target: 100000, StepSize: 0.1, SampleEvery: 100},
	},
	"antiferromagnet": {
		Lattice:     LatticeConfig{NX: 16, NY: 16, Init: InitRandom},
		Hamiltonian: HamiltonianConfig{J: -1, DMI: "bloch"},
		Relax:       RelaxConfig{Target: 20000, StepSize: 0.2, SampleEvery: 20},
	},
	"easy_axis": {
		Lattice: LatticeConfig{NX: 16, NY: 16, Init: InitUniform, Value: []float64{1, 0, 0}},
		Hamiltonian: HamiltonianConfig{
			K: 0.5, U: []float64{0, 0, 1}, J: 1, DMI: "bloch",
		},
		Relax: RelaxConfig{Target: 5000, StepSize: 0.1, SampleEvery: 10},
	},
}

// GetPreset returns a copy of the named preset, or nil if there is none.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
