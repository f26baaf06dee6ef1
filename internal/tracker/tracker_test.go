package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"tempo/internal/core"
)

// fakeStore keeps entries in a map and mimics storage key assignment.
type fakeStore struct {
	entries map[int64]core.Entry
	nextID  int64
	listErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[int64]core.Entry), nextID: 1}
}

func (s *fakeStore) CreateEntry(_ context.Context, e core.Entry) (int64, error) {
	id := s.nextID
	s.nextID++
	e.ID = id
	s.entries[id] = e
	return id, nil
}

func (s *fakeStore) ListEntries(_ context.Context) ([]core.Entry, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []core.Entry
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out, nil
}

func (s *fakeStore) DeleteEntry(_ context.Context, id int64) error {
	delete(s.entries, id)
	return nil
}

func (s *fakeStore) ReplaceEntry(_ context.Context, e core.Entry) error {
	if e.ID == 0 {
		return core.ErrMissingEntryID
	}
	s.entries[e.ID] = e
	return nil
}

func newTestTracker(t *testing.T, store Store, clock func() time.Time) *Tracker {
	t.Helper()
	tr := New(store)
	if clock != nil {
		tr.now = clock
	}
	if err := tr.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return tr
}

func TestSubmitCreatesAndReloads(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(t, store, nil)
	ctx := context.Background()

	e, err := tr.Submit(ctx, 1, 30)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if e.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if e.CreatedAt.IsZero() {
		t.Fatalf("expected stamped created-at")
	}

	entries := tr.Entries()
	if len(entries) != 1 {
		t.Fatalf("cache not reloaded: %d entries", len(entries))
	}
	if entries[0].Hours != 1 || entries[0].Minutes != 30 {
		t.Fatalf("cached entry = %+v", entries[0])
	}
}

func TestSubmitDuringEditReplacesAndKeepsTimestamp(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(t, store, nil)
	ctx := context.Background()

	original, err := tr.Submit(ctx, 1, 0)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := tr.StartEdit(original.ID); err != nil {
		t.Fatalf("start edit: %v", err)
	}
	if tr.Editing() == nil {
		t.Fatalf("expected edit in progress")
	}

	updated, err := tr.Submit(ctx, 3, 45)
	if err != nil {
		t.Fatalf("submit edit: %v", err)
	}
	if updated.ID != original.ID {
		t.Fatalf("id changed on edit: %d -> %d", original.ID, updated.ID)
	}
	// Editing never re-stamps: the original creation time survives.
	if !updated.CreatedAt.Equal(original.CreatedAt) {
		t.Fatalf("created-at changed on edit: %v -> %v", original.CreatedAt, updated.CreatedAt)
	}
	if tr.Editing() != nil {
		t.Fatalf("edit marker not cleared after update")
	}

	entries := tr.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after edit, got %d", len(entries))
	}
	if entries[0].Hours != 3 || entries[0].Minutes != 45 {
		t.Fatalf("edit not applied: %+v", entries[0])
	}
}

func TestDeleteReloadsAndClearsEdit(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(t, store, nil)
	ctx := context.Background()

	e1, _ := tr.Submit(ctx, 1, 0)
	e2, _ := tr.Submit(ctx, 2, 0)

	if err := tr.StartEdit(e1.ID); err != nil {
		t.Fatalf("start edit: %v", err)
	}
	if err := tr.Delete(ctx, e1.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if tr.Editing() != nil {
		t.Fatalf("edit marker should clear when its entry is deleted")
	}

	entries := tr.Entries()
	if len(entries) != 1 || entries[0].ID != e2.ID {
		t.Fatalf("unexpected collection after delete: %+v", entries)
	}

	// Absent id: storage treats it as a no-op.
	if err := tr.Delete(ctx, 9999); err != nil {
		t.Fatalf("delete of absent id: %v", err)
	}
	if len(tr.Entries()) != 1 {
		t.Fatalf("collection changed by no-op delete")
	}
}

func TestCancelEdit(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(t, store, nil)
	ctx := context.Background()

	e, _ := tr.Submit(ctx, 1, 0)
	if err := tr.StartEdit(e.ID); err != nil {
		t.Fatalf("start edit: %v", err)
	}
	tr.CancelEdit()
	if tr.Editing() != nil {
		t.Fatalf("expected no edit in progress")
	}

	// After cancel, submit creates a fresh entry.
	if _, err := tr.Submit(ctx, 2, 0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(tr.Entries()) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(tr.Entries()))
	}
}

func TestStartEditUnknownID(t *testing.T) {
	tr := newTestTracker(t, newFakeStore(), nil)
	if err := tr.StartEdit(42); err == nil {
		t.Fatalf("expected error for unknown id")
	}
}

func TestRolloverDetectedOnMutation(t *testing.T) {
	store := newFakeStore()
	clock := time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)
	tr := newTestTracker(t, store, func() time.Time { return clock })

	if tr.lastMonth != time.March || tr.lastYear != 2024 {
		t.Fatalf("primed to %v/%d", tr.lastMonth, tr.lastYear)
	}

	// Time passes; nothing is detected while the tracker is idle.
	clock = time.Date(2024, 4, 1, 0, 30, 0, 0, time.UTC)
	if tr.lastMonth != time.March {
		t.Fatalf("rollover observed without a mutation")
	}

	// The next mutation triggers the check.
	if _, err := tr.Submit(context.Background(), 1, 0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if tr.lastMonth != time.April {
		t.Fatalf("month rollover not observed, lastMonth=%v", tr.lastMonth)
	}

	// Year rollover on a later mutation.
	clock = time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	if err := tr.Delete(context.Background(), 9999); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if tr.lastYear != 2025 || tr.lastMonth != time.January {
		t.Fatalf("year rollover not observed: %v/%d", tr.lastMonth, tr.lastYear)
	}
}

func TestSubmitSurfacesReloadError(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(t, store, nil)

	store.listErr = errors.New("store gone")
	if _, err := tr.Submit(context.Background(), 1, 0); err == nil {
		t.Fatalf("expected reload error to surface")
	}
}

func TestTotalsFromCache(t *testing.T) {
	store := newFakeStore()
	clock := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	tr := newTestTracker(t, store, func() time.Time { return clock })
	ctx := context.Background()

	if _, err := tr.Submit(ctx, 1, 45); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := tr.Submit(ctx, 0, 30); err != nil {
		t.Fatalf("submit: %v", err)
	}

	months := tr.MonthTotals()
	if len(months) != 1 || months[0].Key != "2024-3" || months[0].Minutes != 135 {
		t.Fatalf("month totals = %+v", months)
	}
	years := tr.YearTotals()
	if len(years) != 1 || years[0].Year != 2024 || years[0].Minutes != 135 {
		t.Fatalf("year totals = %+v", years)
	}
}
