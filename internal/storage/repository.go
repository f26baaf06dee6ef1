// Package storage persists time entries in a local SQLite database.
//
// Every repository method issues a single atomic statement against the
// store. Calls are independently scoped on purpose: a crash between two
// calls can leave a caller's in-memory cache stale, but never corrupts
// the database itself.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"tempo/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateEntry inserts a new entry and returns the key assigned by the
// store. The entry's own ID field is ignored.
func (r *SQLiteRepository) CreateEntry(ctx context.Context, e core.Entry) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO time_entries (hours, minutes, created_at) VALUES (?, ?, ?)`,
		e.Hours, e.Minutes, e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("create entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read assigned id: %w", err)
	}

	slog.InfoContext(ctx, "Entry saved",
		"id", id,
		"hours", e.Hours,
		"minutes", e.Minutes)

	return id, nil
}

// ListEntries returns every stored entry. Order is not part of the
// contract; callers that care must sort or bucket themselves.
func (r *SQLiteRepository) ListEntries(ctx context.Context) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, hours, minutes, created_at FROM time_entries`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []core.Entry
	for rows.Next() {
		var e core.Entry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Hours, &e.Minutes, &createdAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for entry %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

// DeleteEntry removes the entry with the given key. Deleting an absent
// key is a successful no-op.
func (r *SQLiteRepository) DeleteEntry(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}

	affected, _ := res.RowsAffected()
	slog.InfoContext(ctx, "Entry deleted", "id", id, "existed", affected > 0)
	return nil
}

// ReplaceEntry overwrites the full record at the entry's key.
func (r *SQLiteRepository) ReplaceEntry(ctx context.Context, e core.Entry) error {
	if e.ID == 0 {
		return core.ErrMissingEntryID
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO time_entries (id, hours, minutes, created_at) VALUES (?, ?, ?, ?)`,
		e.ID, e.Hours, e.Minutes, e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("replace entry %d: %w", e.ID, err)
	}

	slog.InfoContext(ctx, "Entry replaced",
		"id", e.ID,
		"hours", e.Hours,
		"minutes", e.Minutes)

	return nil
}
