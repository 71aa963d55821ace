// Package history keeps an append-only SQLite record of every sync fire.
// Deferred-path failures have no HTTP caller to report to, so this record is
// the durable trail for them.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one recorded orchestration outcome.
type Run struct {
	ID          int64
	JobID       string
	PageID      string
	Workspace   string
	EventAction string
	Path        string
	Result      string
	TaskID      string
	Error       string
	Duration    time.Duration
	CompletedAt time.Time
}

// Counts is the aggregate shape served by the status endpoint.
type Counts struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// Store persists sync runs in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens (and initializes) the database at dbPath. Use ":memory:" for
// an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sync_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL,
		page_id TEXT NOT NULL,
		workspace TEXT,
		event_action TEXT NOT NULL,
		path TEXT NOT NULL,
		result TEXT NOT NULL,
		task_id TEXT,
		error TEXT,
		duration_ms INTEGER NOT NULL,
		completed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sync_runs_page_id ON sync_runs(page_id);
	CREATE INDEX IF NOT EXISTS idx_sync_runs_completed_at ON sync_runs(completed_at);
	CREATE INDEX IF NOT EXISTS idx_sync_runs_result ON sync_runs(result);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append records one run.
func (s *Store) Append(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_runs (job_id, page_id, workspace, event_action, path, result, task_id, error, duration_ms, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.JobID, run.PageID, run.Workspace, run.EventAction, run.Path, run.Result,
		run.TaskID, run.Error, run.Duration.Milliseconds(), run.CompletedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert sync run: %w", err)
	}
	return nil
}

// Recent returns the latest n runs, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, page_id, workspace, event_action, path, result, task_id, error, duration_ms, completed_at
		 FROM sync_runs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var durationMS, completedUnix int64
		if err := rows.Scan(&r.ID, &r.JobID, &r.PageID, &r.Workspace, &r.EventAction,
			&r.Path, &r.Result, &r.TaskID, &r.Error, &durationMS, &completedUnix); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.CompletedAt = time.Unix(completedUnix, 0).UTC()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// PageRuns returns all runs for one page, oldest first.
func (s *Store) PageRuns(ctx context.Context, pageID string) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, page_id, workspace, event_action, path, result, task_id, error, duration_ms, completed_at
		 FROM sync_runs WHERE page_id = ? ORDER BY id`, pageID)
	if err != nil {
		return nil, fmt.Errorf("query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var durationMS, completedUnix int64
		if err := rows.Scan(&r.ID, &r.JobID, &r.PageID, &r.Workspace, &r.EventAction,
			&r.Path, &r.Result, &r.TaskID, &r.Error, &durationMS, &completedUnix); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.CompletedAt = time.Unix(completedUnix, 0).UTC()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Totals returns overall run counts.
func (s *Store) Totals(ctx context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c Counts
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN result = 'success' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN result = 'error' THEN 1 ELSE 0 END), 0)
		 FROM sync_runs`)
	if err := row.Scan(&c.Total, &c.Success, &c.Failed); err != nil {
		return Counts{}, fmt.Errorf("count sync runs: %w", err)
	}
	return c, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
