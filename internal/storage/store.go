package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/spinlab/internal/analysis"
	"github.com/san-kum/spinlab/internal/config"
	"github.com/san-kum/spinlab/internal/lattice"
	"github.com/san-kum/spinlab/internal/relax"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	metadataFile = "metadata.json"
	fieldFile    = "field.csv"
	energyFile   = "energy.csv"
)

var (
	ErrNotFound  = errors.New("storage: run not found")
	ErrMalformed = errors.New("storage: malformed run data")
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Dir is the directory holding all runs.
func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID            string             `json:"id"`
	Preset        string             `json:"preset,omitempty"`
	Timestamp     time.Time          `json:"timestamp"`
	Seed          int64              `json:"seed"`
	NX            int                `json:"nx"`
	NY            int                `json:"ny"`
	Config        *config.Config     `json:"config"`
	Attempts      int                `json:"attempts"`
	Accepted      int                `json:"accepted"`
	Degenerate    int                `json:"degenerate"`
	InitialEnergy float64            `json:"initial_energy"`
	FinalEnergy   float64            `json:"final_energy"`
	Charge        float64            `json:"charge"`
	Duration      time.Duration      `json:"duration_ns"`
	Stopped       string             `json:"stopped,omitempty"`
	Metrics       map[string]float64 `json:"metrics"`
}

// EnergyPerSite normalises FinalEnergy by the lattice size.
func (m *RunMetadata) EnergyPerSite() float64 {
	n := m.NX * m.NY
	if n == 0 {
		return 0
	}
	return m.FinalEnergy / float64(n)
}

// Run is everything produced by one relaxation.
type Run struct {
	Preset string
	Config *config.Config
	Field  *lattice.Field
	Result *relax.Result
	// StopErr is the error that ended the run early, if any.
	StopErr error
}

// Save writes the run under a fresh id and returns its metadata.
func (s *Store) Save(run Run) (*RunMetadata, error) {
	nx, ny := run.Field.Dims()
	now := time.Now()
	runID := fmt.Sprintf("%dx%d_%d", nx, ny, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("storage: run %s: %w", runID, err)
	}

	meta := &RunMetadata{
		ID:            runID,
		Preset:        run.Preset,
		Timestamp:     now,
		NX:            nx,
		NY:            ny,
		Config:        run.Config,
		Attempts:      run.Result.Attempts,
		Accepted:      run.Result.Accepted,
		Degenerate:    run.Result.Degenerate,
		InitialEnergy: run.Result.InitialEnergy,
		FinalEnergy:   run.Result.FinalEnergy,
		Charge:        analysis.TopologicalCharge(run.Field),
		Duration:      run.Result.Duration,
		Metrics:       run.Result.Metrics,
	}
	if run.Config != nil {
		meta.Seed = run.Config.Seed
	}
	if run.StopErr != nil {
		meta.Stopped = run.StopErr.Error()
	}

	if err := writeFile(filepath.Join(runDir, metadataFile), func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return nil, fmt.Errorf("storage: run %s: %w", runID, err)
	}

	if err := writeFile(filepath.Join(runDir, fieldFile), func(f *os.File) error {
		return WriteFieldCSV(f, run.Field)
	}); err != nil {
		return nil, fmt.Errorf("storage: run %s: %w", runID, err)
	}

	if err := writeFile(filepath.Join(runDir, energyFile), func(f *os.File) error {
		return WriteEnergyCSV(f, run.Result.Energies)
	}); err != nil {
		return nil, fmt.Errorf("storage: run %s: %w", runID, err)
	}

	return meta, nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns all runs, newest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, wrapRead(runID, err)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: run %s: %v", ErrMalformed, runID, err)
	}
	return &meta, nil
}

// LoadField rebuilds the relaxed field of a run.
func (s *Store) LoadField(runID string) (*lattice.Field, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	records, err := readCSV(filepath.Join(s.baseDir, runID, fieldFile))
	if err != nil {
		return nil, wrapRead(runID, err)
	}

	spins := make([]r3.Vec, meta.NX*meta.NY)
	seen := 0
	for _, rec := range records {
		if len(rec) != 5 {
			return nil, fmt.Errorf("%w: run %s: field row has %d columns", ErrMalformed, runID, len(rec))
		}
		vals, err := parseFloats(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: run %s: %v", ErrMalformed, runID, err)
		}
		i, j := int(vals[0]), int(vals[1])
		if i < 0 || i >= meta.NX || j < 0 || j >= meta.NY {
			return nil, fmt.Errorf("%w: run %s: site (%d,%d) outside %dx%d", ErrMalformed, runID, i, j, meta.NX, meta.NY)
		}
		spins[i*meta.NY+j] = r3.Vec{X: vals[2], Y: vals[3], Z: vals[4]}
		seen++
	}
	if seen != len(spins) {
		return nil, fmt.Errorf("%w: run %s: %d of %d sites present", ErrMalformed, runID, seen, len(spins))
	}

	f, err := lattice.FromSpins(meta.NX, meta.NY, spins)
	if err != nil {
		return nil, fmt.Errorf("%w: run %s: %v", ErrMalformed, runID, err)
	}
	return f, nil
}

// LoadEnergies returns the sampled energy trace of a run.
func (s *Store) LoadEnergies(runID string) ([]float64, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, energyFile))
	if err != nil {
		return nil, wrapRead(runID, err)
	}

	energies := make([]float64, 0, len(records))
	for _, rec := range records {
		if len(rec) != 2 {
			continue
		}
		e, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			continue
		}
		energies = append(energies, e)
	}
	return energies, nil
}

// readCSV returns the records of a CSV file without its header row.
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]string{}, nil
	}
	return records[1:], nil
}

func parseFloats(rec []string) ([]float64, error) {
	out := make([]float64, len(rec))
	for k, v := range rec {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		out[k] = f
	}
	return out, nil
}

// Delete removes a run directory. Unknown ids give ErrNotFound.
func (s *Store) Delete(runID string) error {
	if _, err := s.Load(runID); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(s.baseDir, runID)); err != nil {
		return fmt.Errorf("storage: run %s: %w", runID, err)
	}
	return nil
}

func wrapRead(runID string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return fmt.Errorf("storage: run %s: %w", runID, err)
}
