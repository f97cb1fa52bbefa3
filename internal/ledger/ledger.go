// Package ledger persists the history of pipeline runs and their state
// transitions in SQLite.
package ledger

import (
	"context"
	"time"
)

// Run is one pipeline run as recorded in the ledger.
type Run struct {
	ID       string
	Trigger  string
	State    string
	Started  time.Time
	Finished time.Time // zero while the run is in progress
	Commit   string    // source revision, empty for local sources
	Items    int
	Skipped  int
	Indexed  int
	Digest   string
	Target   string
	Location string
	Revision string
	Error    string
}

// Duration is the wall time of a finished run.
func (r *Run) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// Transition is one state change of a run.
type Transition struct {
	RunID  string
	State  string
	At     time.Time
	Detail string
}

// Store defines the interface for persisting and retrieving runs.
type Store interface {
	// Record inserts or replaces the run row.
	Record(ctx context.Context, run *Run) error

	// AppendTransition adds a state change for a run.
	AppendTransition(ctx context.Context, t Transition) error

	// Get returns a run by ID, or ErrRunNotFound.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns the most recent runs, newest first.
	List(ctx context.Context, limit int) ([]*Run, error)

	// Transitions returns the state changes of a run in order.
	Transitions(ctx context.Context, id string) ([]Transition, error)

	Close() error
}
