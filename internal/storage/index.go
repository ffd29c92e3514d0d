package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

var ErrUnknownOrder = errors.New("storage: unknown sort order")

// orderings maps List sort keys to SQL.
var orderings = map[string]string{
	"created": "created_at DESC",
	"energy":  "final_energy / (nx * ny) ASC",
	"charge":  "ABS(charge) DESC",
	"size":    "nx * ny DESC, created_at DESC",
}

// Index is a SQLite catalogue of saved runs for querying across the store.
type Index struct {
	db *sql.DB
}

// OpenIndex opens or creates the index database at dbPath. ":memory:" gives
// a private in-memory index.
func OpenIndex(dbPath string) (*Index, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	db.SetMaxOpenConns(1)

	idx := &Index{db: db}
	if err := idx.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate index: %w", err)
	}
	return idx, nil
}

func (x *Index) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		preset TEXT NOT NULL DEFAULT '',
		nx INTEGER NOT NULL,
		ny INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		accepted INTEGER NOT NULL,
		attempts INTEGER NOT NULL,
		initial_energy REAL NOT NULL,
		final_energy REAL NOT NULL,
		charge REAL NOT NULL,
		data JSON NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_size ON runs(nx, ny);
	CREATE INDEX IF NOT EXISTS idx_runs_energy ON runs(final_energy);
	`

	_, err := x.db.Exec(schema)
	return err
}

// Insert adds or replaces the entry for meta.ID.
func (x *Index) Insert(ctx context.Context, meta *RunMetadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("storage: run %s: failed to marshal: %w", meta.ID, err)
	}

	_, err = x.db.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, preset, nx, ny, seed, accepted, attempts, initial_energy, final_energy, charge, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at,
			preset = excluded.preset,
			nx = excluded.nx,
			ny = excluded.ny,
			seed = excluded.seed,
			accepted = excluded.accepted,
			attempts = excluded.attempts,
			initial_energy = excluded.initial_energy,
			final_energy = excluded.final_energy,
			charge = excluded.charge,
			data = excluded.data
	`, meta.ID, meta.Timestamp.UnixNano(), meta.Preset, meta.NX, meta.NY, meta.Seed,
		meta.Accepted, meta.Attempts, meta.InitialEnergy, meta.FinalEnergy, meta.Charge, data)
	if err != nil {
		return fmt.Errorf("storage: run %s: failed to index: %w", meta.ID, err)
	}
	return nil
}

// Rebuild indexes every run found in the store.
func (x *Index) Rebuild(ctx context.Context, s *Store) (int, error) {
	runs, err := s.List()
	if err != nil {
		return 0, err
	}
	for i := range runs {
		if err := x.Insert(ctx, &runs[i]); err != nil {
			return i, err
		}
	}
	return len(runs), nil
}

// List returns all indexed runs sorted by orderBy: created, energy (per
// site), charge (by magnitude) or size.
func (x *Index) List(ctx context.Context, orderBy string) ([]RunMetadata, error) {
	order, ok := orderings[orderBy]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOrder, orderBy)
	}
	return x.query(ctx, `SELECT data FROM runs ORDER BY `+order)
}

// Best returns the lowest-energy run of each lattice size, at most n of
// them, ordered by energy per site.
func (x *Index) Best(ctx context.Context, n int) ([]RunMetadata, error) {
	return x.query(ctx, `
		SELECT r.data FROM runs r
		WHERE r.final_energy = (
			SELECT MIN(final_energy) FROM runs WHERE nx = r.nx AND ny = r.ny
		)
		GROUP BY r.nx, r.ny
		ORDER BY r.final_energy / (r.nx * r.ny) ASC
		LIMIT ?
	`, n)
}

// Get returns the indexed metadata of one run.
func (x *Index) Get(ctx context.Context, id string) (*RunMetadata, error) {
	var data []byte
	err := x.db.QueryRowContext(ctx, `SELECT data FROM runs WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: run %s: %w", id, err)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: run %s: %v", ErrMalformed, id, err)
	}
	return &meta, nil
}

// Delete removes a run from the index; the files are left alone.
func (x *Index) Delete(ctx context.Context, id string) error {
	_, err := x.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("storage: run %s: failed to delete: %w", id, err)
	}
	return nil
}

func (x *Index) query(ctx context.Context, q string, args ...any) ([]RunMetadata, error) {
	rows, err := x.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run: %w", err)
		}
		runs = append(runs, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

func (x *Index) Close() error {
	return x.db.Close()
}
