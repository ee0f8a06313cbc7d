// Package jobs persists render job state in SQLite.
package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"shortforge/internal/services"
)

// Store manages render job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the jobs database at dbPath and applies
// the schema.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure jobs directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) applySchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var version int
	err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_info LIMIT 1`).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_info (version) VALUES (?)`, schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case version > schemaVersion:
		return fmt.Errorf("jobs database schema version %d is newer than supported %d", version, schemaVersion)
	}
	return nil
}

const jobColumns = "id, client_id, provider, status, created_at, updated_at, error, meta_json"

// Save inserts a new job. Saving an existing id is an error.
func (s *Store) Save(ctx context.Context, job Job) error {
	if err := validateJob(job); err != nil {
		return err
	}
	metaJSON, err := encodeMeta(job.Meta)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO render_jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.ClientID,
		job.Provider,
		string(job.Status),
		job.CreatedAt.UTC().Format(time.RFC3339Nano),
		job.UpdatedAt.UTC().Format(time.RFC3339Nano),
		nullableString(job.Error),
		metaJSON,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return services.Wrap(services.ErrValidation, "", "jobs.save", fmt.Sprintf("render job already exists: %s", job.ID), nil)
		}
		return fmt.Errorf("insert render job: %w", err)
	}
	return nil
}

// Update rewrites an existing job. The client id is immutable and status
// changes must move forward; a terminal job only accepts a byte-identical
// rewrite, which is a no-op. Violations fail without writing.
func (s *Store) Update(ctx context.Context, job Job) error {
	if err := validateJob(job); err != nil {
		return err
	}

	existing, err := s.Get(ctx, job.ID)
	if err != nil {
		return err
	}
	if existing.ClientID != job.ClientID {
		return services.Wrap(services.ErrValidation, "", "jobs.update",
			fmt.Sprintf("render job %s belongs to client %s, not %s", job.ID, existing.ClientID, job.ClientID), nil)
	}
	if existing.Status.Terminal() {
		// Re-observing a finished job is fine; changing it is not.
		if job.Status == existing.Status && job.Error == existing.Error {
			current, err := encodeMeta(existing.Meta)
			if err != nil {
				return err
			}
			proposed, err := encodeMeta(job.Meta)
			if err != nil {
				return err
			}
			if current == proposed {
				return nil
			}
		}
		return services.Wrap(services.ErrValidation, "", "jobs.update",
			fmt.Sprintf("render job %s is %s and can no longer change", job.ID, existing.Status), nil)
	}
	if !existing.Status.CanTransition(job.Status) {
		return services.Wrap(services.ErrValidation, "", "jobs.update",
			fmt.Sprintf("render job %s cannot move from %s to %s", job.ID, existing.Status, job.Status), nil)
	}

	metaJSON, err := encodeMeta(job.Meta)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE render_jobs SET status = ?, updated_at = ?, error = ?, meta_json = ? WHERE id = ?`,
		string(job.Status),
		job.UpdatedAt.UTC().Format(time.RFC3339Nano),
		nullableString(job.Error),
		metaJSON,
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update render job: %w", err)
	}
	return nil
}

// Get fetches one job by id.
func (s *Store) Get(ctx context.Context, id string) (Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM render_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, services.Wrap(services.ErrNotFound, "", "jobs.get", fmt.Sprintf("render job not found: %s", id), nil)
	}
	if err != nil {
		return Job{}, fmt.Errorf("get render job: %w", err)
	}
	return job, nil
}

// ListRecent returns up to limit jobs sorted by most recent update,
// optionally filtered by client.
func (s *Store) ListRecent(ctx context.Context, limit int, clientID string) ([]Job, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `SELECT ` + jobColumns + ` FROM render_jobs`
	args := []any{}
	if clientID != "" {
		query += ` WHERE client_id = ?`
		args = append(args, clientID)
	}
	query += ` ORDER BY updated_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list render jobs: %w", err)
	}
	defer rows.Close()

	var result []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan render job: %w", err)
		}
		result = append(result, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate render jobs: %w", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var (
		job       Job
		status    string
		createdAt string
		updatedAt string
		errText   sql.NullString
		metaJSON  sql.NullString
	)
	if err := row.Scan(&job.ID, &job.ClientID, &job.Provider, &status, &createdAt, &updatedAt, &errText, &metaJSON); err != nil {
		return Job{}, err
	}
	job.Status = Status(status)
	var err error
	if job.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Job{}, fmt.Errorf("parse created_at: %w", err)
	}
	if job.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return Job{}, fmt.Errorf("parse updated_at: %w", err)
	}
	if errText.Valid {
		job.Error = errText.String
	}
	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &job.Meta); err != nil {
			return Job{}, fmt.Errorf("decode job meta: %w", err)
		}
	}
	return job, nil
}

func validateJob(job Job) error {
	if strings.TrimSpace(job.ID) == "" {
		return services.Wrap(services.ErrValidation, "", "jobs", "job id must not be empty", nil)
	}
	if strings.TrimSpace(job.ClientID) == "" {
		return services.Wrap(services.ErrValidation, "", "jobs", "job client id must not be empty", nil)
	}
	if !job.Status.Valid() {
		return services.Wrap(services.ErrValidation, "", "jobs", fmt.Sprintf("unknown job status %q", job.Status), nil)
	}
	return nil
}

func encodeMeta(meta map[string]any) (any, error) {
	if len(meta) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode job meta: %w", err)
	}
	return string(data), nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
