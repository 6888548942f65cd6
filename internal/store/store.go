// Package store persists the append-only run history and the per-task
// failure state in SQLite. The database is the only state shared across
// concurrently running supervisor processes; WAL mode plus a busy timeout
// keeps cross-task writers safe without external coordination.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pietz/trigr/internal/models"
)

// ErrNoRuns is returned by LastOutput when a task has no recorded runs.
var ErrNoRuns = errors.New("no runs recorded")

// outputCeiling bounds the stdout/stderr stored per run.
const outputCeiling = 64 * 1024

// truncationMarker is appended when captured output exceeds the ceiling.
const truncationMarker = "\n... [output truncated]"

// timeLayout is a fixed-width RFC 3339 UTC format. RFC3339Nano drops
// trailing fractional zeros, which breaks the lexicographic ordering the
// started_at comparisons rely on.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    task_name TEXT NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    classification TEXT NOT NULL,
    exit_code INTEGER NOT NULL,
    stdout TEXT NOT NULL DEFAULT '',
    stderr TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_task ON runs(task_name, started_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

CREATE TABLE IF NOT EXISTS failure_state (
    task_name TEXT PRIMARY KEY,
    consecutive_failures INTEGER NOT NULL DEFAULT 0,
    disabled INTEGER NOT NULL DEFAULT 0,
    updated_at TEXT NOT NULL
);
`

// Store manages the SQLite history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens (creating if necessary) the history database at dbPath and
// initializes the schema.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// busy_timeout first so the remaining pragmas wait on locks instead of
	// failing when another task's supervisor is initializing concurrently.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := execWithRetry(db, schemaSQL, 5, 10*time.Millisecond); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// execWithRetry executes a SQL statement with exponential backoff on
// "database is locked" errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Append persists one run record. The record's ID is assigned if empty, and
// captured output is truncated to the storage ceiling. The insert is atomic;
// once Append returns the record survives a process crash.
func (s *Store) Append(ctx context.Context, rec *models.RunRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, task_name, started_at, finished_at, classification, exit_code, stdout, stderr)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.TaskName,
		rec.StartedAt.UTC().Format(timeLayout),
		rec.FinishedAt.UTC().Format(timeLayout),
		string(rec.Classification),
		rec.ExitCode,
		clampOutput(rec.Stdout),
		clampOutput(rec.Stderr),
	)
	if err != nil {
		return fmt.Errorf("insert run record: %w", err)
	}
	return nil
}

func clampOutput(s string) string {
	if len(s) <= outputCeiling {
		return s
	}
	return s[:outputCeiling] + truncationMarker
}

// Query returns run records newest-first. taskName filters to one task when
// non-empty. limit <= 0 defaults to 20.
func (s *Store) Query(ctx context.Context, taskName string, limit, offset int) ([]*models.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, task_name, started_at, finished_at, classification, exit_code, stdout, stderr
		FROM runs`
	args := []any{}
	if taskName != "" {
		query += ` WHERE task_name = ?`
		args = append(args, taskName)
	}
	query += ` ORDER BY started_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []*models.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return records, nil
}

func scanRun(rows *sql.Rows) (*models.RunRecord, error) {
	var rec models.RunRecord
	var classification, started, finished string
	if err := rows.Scan(
		&rec.ID,
		&rec.TaskName,
		&started,
		&finished,
		&classification,
		&rec.ExitCode,
		&rec.Stdout,
		&rec.Stderr,
	); err != nil {
		return nil, fmt.Errorf("scan run row: %w", err)
	}
	rec.Classification = models.Classification(classification)
	var err error
	if rec.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if rec.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}
	return &rec, nil
}

// LastOutput returns the most recent run record for a task, or ErrNoRuns.
func (s *Store) LastOutput(ctx context.Context, taskName string) (*models.RunRecord, error) {
	records, err := s.Query(ctx, taskName, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoRuns
	}
	return records[0], nil
}

// Purge deletes run records that started before now-olderThan and reports
// how many were removed. Failure state is never purged.
func (s *Store) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(timeLayout)
	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge runs: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count purged runs: %w", err)
	}
	return deleted, nil
}

// FailureState returns the task's failure row. A task with no row yet is in
// the initial state: zero failures, not disabled.
func (s *Store) FailureState(ctx context.Context, taskName string) (*models.FailureState, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT task_name, consecutive_failures, disabled, updated_at FROM failure_state WHERE task_name = ?`,
		taskName)

	var state models.FailureState
	var disabled int
	var updated string
	err := row.Scan(&state.TaskName, &state.ConsecutiveFailures, &disabled, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.FailureState{TaskName: taskName}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query failure state: %w", err)
	}
	state.Disabled = disabled != 0
	if state.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return nil, fmt.Errorf("parse failure state timestamp: %w", err)
	}
	return &state, nil
}

// SetFailureState upserts the task's failure row.
func (s *Store) SetFailureState(ctx context.Context, state *models.FailureState) error {
	disabled := 0
	if state.Disabled {
		disabled = 1
	}
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO failure_state (task_name, consecutive_failures, disabled, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(task_name) DO UPDATE SET
		     consecutive_failures = excluded.consecutive_failures,
		     disabled = excluded.disabled,
		     updated_at = excluded.updated_at`,
		state.TaskName, state.ConsecutiveFailures, disabled, now)
	if err != nil {
		return fmt.Errorf("upsert failure state: %w", err)
	}
	return nil
}

// DeleteFailureState removes a task's failure row, used when the task itself
// is removed.
func (s *Store) DeleteFailureState(ctx context.Context, taskName string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM failure_state WHERE task_name = ?`, taskName); err != nil {
		return fmt.Errorf("delete failure state: %w", err)
	}
	return nil
}
