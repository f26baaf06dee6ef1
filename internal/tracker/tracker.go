// Package tracker owns the in-memory entry collection and orchestrates
// all mutations against storage.
//
// The cache is never patched incrementally: every mutation is followed
// by a full reload, so the collection handed to the views is always
// consistent with storage once the operation returns.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tempo/internal/core"
)

// Store is the persistence contract the tracker drives.
type Store interface {
	CreateEntry(ctx context.Context, e core.Entry) (int64, error)
	ListEntries(ctx context.Context) ([]core.Entry, error)
	DeleteEntry(ctx context.Context, id int64) error
	ReplaceEntry(ctx context.Context, e core.Entry) error
}

type Tracker struct {
	mu        sync.Mutex
	store     Store
	entries   []core.Entry
	editing   *core.Entry
	lastMonth time.Month
	lastYear  int

	now func() time.Time // swapped in tests
}

func New(store Store) *Tracker {
	return &Tracker{
		store: store,
		now:   time.Now,
	}
}

// Init loads the full collection once at startup and primes the
// last-observed month and year.
func (t *Tracker) Init(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.reload(ctx); err != nil {
		return err
	}

	now := t.now()
	t.lastMonth = now.Month()
	t.lastYear = now.Year()

	slog.InfoContext(ctx, "Tracker initialized",
		"entries", len(t.entries),
		"month", int(t.lastMonth),
		"year", t.lastYear)
	return nil
}

// Submit records a new entry, or overwrites the entry being edited.
// When an edit is in progress the edited entry's id and original
// creation timestamp are preserved; only the duration fields change.
// Both paths end with a full reload and a rollover check.
func (t *Tracker) Submit(ctx context.Context, hours, minutes int) (core.Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var e core.Entry
	if t.editing != nil {
		e = core.Entry{
			ID:        t.editing.ID,
			Hours:     hours,
			Minutes:   minutes,
			CreatedAt: t.editing.CreatedAt,
		}
		if err := t.store.ReplaceEntry(ctx, e); err != nil {
			return core.Entry{}, fmt.Errorf("update entry: %w", err)
		}
		t.editing = nil
	} else {
		e = core.Entry{
			Hours:     hours,
			Minutes:   minutes,
			CreatedAt: t.now(),
		}
		id, err := t.store.CreateEntry(ctx, e)
		if err != nil {
			return core.Entry{}, fmt.Errorf("create entry: %w", err)
		}
		e.ID = id
	}

	if err := t.reload(ctx); err != nil {
		return core.Entry{}, err
	}
	t.checkRollover(ctx)

	return e, nil
}

// Delete removes the entry with the given id and reloads the
// collection. An absent id is not an error.
func (t *Tracker) Delete(ctx context.Context, id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if t.editing != nil && t.editing.ID == id {
		t.editing = nil
	}

	if err := t.reload(ctx); err != nil {
		return err
	}
	t.checkRollover(ctx)

	return nil
}

// StartEdit marks the entry with the given id as being edited, so the
// next Submit overwrites it instead of creating a new entry.
func (t *Tracker) StartEdit(id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range t.entries {
		if e.ID == id {
			edit := e
			t.editing = &edit
			return nil
		}
	}
	return fmt.Errorf("start edit: entry %d not in collection", id)
}

// CancelEdit clears the edit-in-progress marker.
func (t *Tracker) CancelEdit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.editing = nil
}

// Editing returns a copy of the entry being edited, or nil.
func (t *Tracker) Editing() *core.Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.editing == nil {
		return nil
	}
	edit := *t.editing
	return &edit
}

// Entries returns a snapshot of the cached collection.
func (t *Tracker) Entries() []core.Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]core.Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// MonthTotals aggregates the cached collection by calendar month.
func (t *Tracker) MonthTotals() []core.MonthTotal {
	return core.TotalsByMonth(t.Entries())
}

// YearTotals aggregates the cached collection by year.
func (t *Tracker) YearTotals() []core.YearTotal {
	return core.TotalsByYear(t.Entries())
}

// reload discards the cache and re-reads the full collection.
// Callers must hold the mutex.
func (t *Tracker) reload(ctx context.Context) error {
	entries, err := t.store.ListEntries(ctx)
	if err != nil {
		return fmt.Errorf("reload entries: %w", err)
	}
	t.entries = entries
	return nil
}

// checkRollover compares wall-clock month and year against the last
// observed values. The hook is log-only: aggregates are always
// recomputed from raw entries, so there is nothing to reset. The check
// runs only as a side effect of mutations; an idle session does not
// detect rollover by the passage of time alone. Callers must hold the
// mutex.
func (t *Tracker) checkRollover(ctx context.Context) {
	now := t.now()
	if now.Month() != t.lastMonth {
		slog.InfoContext(ctx, "Month rollover observed",
			"from", int(t.lastMonth), "to", int(now.Month()))
		t.lastMonth = now.Month()
	}
	if now.Year() != t.lastYear {
		slog.InfoContext(ctx, "Year rollover observed",
			"from", t.lastYear, "to", now.Year())
		t.lastYear = now.Year()
	}
}
