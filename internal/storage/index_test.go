package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := OpenIndex(":memory:")
	if err != nil {
		t.Fatalf("failed to create test index: %v", err)
	}
	t.Cleanup(func() {
		idx.Close()
	})
	return idx
}

func indexEntry(id string, nx, ny int, final, charge float64, at time.Time) *RunMetadata {
	return &RunMetadata{
		ID:          id,
		Timestamp:   at,
		NX:          nx,
		NY:          ny,
		FinalEnergy: final,
		Charge:      charge,
	}
}

func TestIndexInsertGet(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	m := indexEntry("a", 4, 4, -10, 1, time.Unix(100, 0))
	if err := idx.Insert(ctx, m); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, err := idx.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.FinalEnergy != -10 || got.NX != 4 {
		t.Errorf("unexpected run %+v", got)
	}

	m.FinalEnergy = -12
	if err := idx.Insert(ctx, m); err != nil {
		t.Fatalf("re-insert failed: %v", err)
	}
	got, _ = idx.Get(ctx, "a")
	if got.FinalEnergy != -12 {
		t.Errorf("expected upsert to replace energy, got %f", got.FinalEnergy)
	}

	if _, err := idx.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIndexList(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	runs := []*RunMetadata{
		indexEntry("old", 2, 2, -4, 0, time.Unix(1, 0)),         // -1.0 per site
		indexEntry("new", 4, 4, -8, -1, time.Unix(3, 0)),        // -0.5 per site
		indexEntry("middle", 3, 3, -18, 0.2, time.Unix(2, 0)), // -2.0 per site
	}
	for _, r := range runs {
		if err := idx.Insert(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		order string
		want  []string
	}{
		{"created", []string{"new", "middle", "old"}},
		{"energy", []string{"middle", "old", "new"}},
		{"charge", []string{"new", "middle", "old"}},
		{"size", []string{"new", "middle", "old"}},
	}

	for _, tt := range tests {
		t.Run(tt.order, func(t *testing.T) {
			got, err := idx.List(ctx, tt.order)
			if err != nil {
				t.Fatalf("list failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d runs, got %d", len(tt.want), len(got))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}

	if _, err := idx.List(ctx, "random"); !errors.Is(err, ErrUnknownOrder) {
		t.Errorf("expected ErrUnknownOrder, got %v", err)
	}
}

func TestIndexBest(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	for _, r := range []*RunMetadata{
		indexEntry("a1", 4, 4, -10, 0, time.Unix(1, 0)),
		indexEntry("a2", 4, 4, -14, 0, time.Unix(2, 0)),
		indexEntry("b1", 2, 2, -2, 0, time.Unix(3, 0)),
		indexEntry("b2", 2, 2, -1, 0, time.Unix(4, 0)),
	} {
		if err := idx.Insert(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	best, err := idx.Best(ctx, 10)
	if err != nil {
		t.Fatalf("best failed: %v", err)
	}
	if len(best) != 2 {
		t.Fatalf("expected one run per size, got %d", len(best))
	}
	if best[0].ID != "a2" || best[1].ID != "b1" {
		t.Errorf("expected a2 then b1, got %s then %s", best[0].ID, best[1].ID)
	}

	best, err = idx.Best(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(best) != 1 {
		t.Errorf("expected limit to apply, got %d", len(best))
	}
}

func TestIndexRebuildAndDelete(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	saved, err := st.Save(testRun(t, 3, 2, -1))
	if err != nil {
		t.Fatal(err)
	}

	n, err := idx.Rebuild(ctx, st)
	if err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 indexed run, got %d", n)
	}
	if _, err := idx.Get(ctx, saved.ID); err != nil {
		t.Errorf("rebuilt index missing run: %v", err)
	}

	if err := idx.Delete(ctx, saved.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := idx.Get(ctx, saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
