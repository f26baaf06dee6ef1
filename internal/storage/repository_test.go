package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tempo/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "tempo.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestCreateAssignsUniqueIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const n = 5
	seen := make(map[int64]bool)
	for i := 0; i < n; i++ {
		id, err := repo.CreateEntry(ctx, core.Entry{Hours: i, Minutes: 30, CreatedAt: time.Now()})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}

	entries, err := repo.ListEntries(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != n {
		t.Fatalf("expected %d entries after reload, got %d", n, len(entries))
	}
}

func TestRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)
	in := core.Entry{Hours: 1, Minutes: 75, CreatedAt: created}
	id, err := repo.CreateEntry(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	entries, err := repo.ListEntries(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	got := entries[0]
	if got.ID != id {
		t.Fatalf("id = %d, want %d", got.ID, id)
	}
	// Out-of-range minutes come back exactly as stored.
	if got.Hours != in.Hours || got.Minutes != in.Minutes {
		t.Fatalf("duration = %d:%d, want %d:%d", got.Hours, got.Minutes, in.Hours, in.Minutes)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, created)
	}
}

func TestDeleteRemovesOnlyTarget(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id1, _ := repo.CreateEntry(ctx, core.Entry{Hours: 1, Minutes: 0, CreatedAt: time.Now()})
	id2, _ := repo.CreateEntry(ctx, core.Entry{Hours: 2, Minutes: 15, CreatedAt: time.Now()})

	if err := repo.DeleteEntry(ctx, id1); err != nil {
		t.Fatalf("delete: %v", err)
	}

	entries, err := repo.ListEntries(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID != id2 || entries[0].Hours != 2 || entries[0].Minutes != 15 {
		t.Fatalf("surviving entry changed: %+v", entries[0])
	}
}

func TestDeleteMissingKeyIsNoOp(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, _ := repo.CreateEntry(ctx, core.Entry{Hours: 1, Minutes: 0, CreatedAt: time.Now()})

	if err := repo.DeleteEntry(ctx, id+1000); err != nil {
		t.Fatalf("delete absent id should succeed, got %v", err)
	}

	entries, _ := repo.ListEntries(ctx)
	if len(entries) != 1 {
		t.Fatalf("collection changed by no-op delete: %d entries", len(entries))
	}
}

func TestReplacePreservesID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)
	id, _ := repo.CreateEntry(ctx, core.Entry{Hours: 1, Minutes: 0, CreatedAt: created})

	// Full-record overwrite keeps the key and the original timestamp.
	if err := repo.ReplaceEntry(ctx, core.Entry{ID: id, Hours: 3, Minutes: 45, CreatedAt: created}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	entries, _ := repo.ListEntries(ctx)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if got.ID != id {
		t.Fatalf("id changed to %d", got.ID)
	}
	if got.Hours != 3 || got.Minutes != 45 {
		t.Fatalf("duration = %d:%d, want 3:45", got.Hours, got.Minutes)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created_at changed to %v", got.CreatedAt)
	}
}

func TestReplaceRequiresID(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.ReplaceEntry(context.Background(), core.Entry{Hours: 1, CreatedAt: time.Now()})
	if err != core.ErrMissingEntryID {
		t.Fatalf("expected ErrMissingEntryID, got %v", err)
	}
}
