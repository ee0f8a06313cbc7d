// Package quota tracks per-client daily upload counts in SQLite.
package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists upload counts keyed by client and UTC date.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the quota database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure quota directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	const schema = `
CREATE TABLE IF NOT EXISTS upload_counts (
    client_id TEXT NOT NULL,
    date TEXT NOT NULL,
    count INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (client_id, date)
);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply quota schema: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DateKey formats a timestamp as the UTC day bucket used for counting.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// DailyCount returns the recorded upload count for a client on a date.
func (s *Store) DailyCount(ctx context.Context, clientID, date string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT count FROM upload_counts WHERE client_id = ? AND date = ?`, clientID, date).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read upload count: %w", err)
	}
	return count, nil
}

// Increment adds one upload to the client's daily count and returns the new
// count.
func (s *Store) Increment(ctx context.Context, clientID, date string) (int, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO upload_counts (client_id, date, count) VALUES (?, ?, 1)
         ON CONFLICT (client_id, date) DO UPDATE SET count = count + 1`,
		clientID, date)
	if err != nil {
		return 0, fmt.Errorf("increment upload count: %w", err)
	}
	return s.DailyCount(ctx, clientID, date)
}

// Release returns a previously acquired slot, used when the upload that
// reserved it ultimately fails. Counts never go below zero.
func (s *Store) Release(ctx context.Context, clientID, date string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE upload_counts SET count = count - 1
         WHERE client_id = ? AND date = ? AND count > 0`,
		clientID, date)
	if err != nil {
		return fmt.Errorf("release upload slot: %w", err)
	}
	return nil
}

// Acquire reserves one upload slot if the count is below limit, returning
// the new count. The check and increment happen in a single guarded write
// so concurrent runs cannot both pass the limit check.
func (s *Store) Acquire(ctx context.Context, clientID, date string, limit int) (int, bool, error) {
	if limit <= 0 {
		count, err := s.DailyCount(ctx, clientID, date)
		return count, false, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO upload_counts (client_id, date, count) VALUES (?, ?, 1)
         ON CONFLICT (client_id, date) DO UPDATE SET count = count + 1
         WHERE count < ?`,
		clientID, date, limit)
	if err != nil {
		return 0, false, fmt.Errorf("acquire upload slot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("acquire upload slot: %w", err)
	}
	count, err := s.DailyCount(ctx, clientID, date)
	if err != nil {
		return 0, false, err
	}
	return count, affected > 0, nil
}
