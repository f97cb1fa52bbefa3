package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and if needed creates) the ledger database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseOpenFailed, err)
	}
	// one connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		trigger_name TEXT NOT NULL,
		state TEXT NOT NULL,
		started INTEGER NOT NULL,
		finished INTEGER NOT NULL DEFAULT 0,
		source_commit TEXT NOT NULL DEFAULT '',
		items INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		indexed_items INTEGER NOT NULL DEFAULT 0,
		digest TEXT NOT NULL DEFAULT '',
		target TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		revision TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);
	CREATE TABLE IF NOT EXISTS transitions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		state TEXT NOT NULL,
		at INTEGER NOT NULL,
		detail TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_transitions_run ON transitions(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts or replaces the run row.
func (s *SQLiteStore) Record(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var finished int64
	if !run.Finished.IsZero() {
		finished = run.Finished.UnixNano()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, trigger_name, state, started, finished, source_commit, items, skipped, indexed_items, digest, target, location, revision, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			finished = excluded.finished,
			source_commit = excluded.source_commit,
			items = excluded.items,
			skipped = excluded.skipped,
			indexed_items = excluded.indexed_items,
			digest = excluded.digest,
			target = excluded.target,
			location = excluded.location,
			revision = excluded.revision,
			error = excluded.error`,
		run.ID, run.Trigger, run.State, run.Started.UnixNano(), finished, run.Commit,
		run.Items, run.Skipped, run.Indexed, run.Digest, run.Target, run.Location, run.Revision, run.Error,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// AppendTransition adds a state change for a run.
func (s *SQLiteStore) AppendTransition(ctx context.Context, t Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := t.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO transitions (run_id, state, at, detail) VALUES (?, ?, ?, ?)",
		t.RunID, t.State, at.UnixNano(), t.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}
	return nil
}

const runColumns = "id, trigger_name, state, started, finished, source_commit, items, skipped, indexed_items, digest, target, location, revision, error"

// Get returns a run by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List returns up to limit runs, newest first. A non-positive limit returns all runs.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Transitions returns the state changes of a run in insertion order.
func (s *SQLiteStore) Transitions(ctx context.Context, id string) ([]Transition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, state, at, detail FROM transitions WHERE run_id = ? ORDER BY id", id)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var t Transition
		var at int64
		if err := rows.Scan(&t.RunID, &t.State, &at, &t.Detail); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		t.At = time.Unix(0, at)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var started, finished int64
	err := row.Scan(&r.ID, &r.Trigger, &r.State, &started, &finished, &r.Commit,
		&r.Items, &r.Skipped, &r.Indexed, &r.Digest, &r.Target, &r.Location, &r.Revision, &r.Error)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.Started = time.Unix(0, started)
	if finished != 0 {
		r.Finished = time.Unix(0, finished)
	}
	return &r, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
