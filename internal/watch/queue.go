package watch

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/metrics"
	"git.home.luguber.info/inful/sitepipe/internal/pipeline"
)

// RunFunc executes one pipeline run.
type RunFunc func(ctx context.Context, trigger pipeline.Trigger)

// Queue runs triggers one at a time. While a run is in progress at most one
// further run is kept pending; later triggers replace the pending one.
type Queue struct {
	run      RunFunc
	recorder metrics.Recorder

	mu      sync.Mutex
	pending *pipeline.Trigger
	wake    chan struct{}
}

// NewQueue returns a queue that executes run. A nil recorder disables metrics.
func NewQueue(run RunFunc, recorder metrics.Recorder) *Queue {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Queue{run: run, recorder: recorder, wake: make(chan struct{}, 1)}
}

// Enqueue schedules a run for trigger. It reports whether the trigger was
// folded into an already pending run.
func (q *Queue) Enqueue(trigger pipeline.Trigger) bool {
	q.mu.Lock()
	coalesced := q.pending != nil
	q.pending = &trigger
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	q.recorder.IncTrigger(trigger.Source, coalesced)
	slog.Debug("Run queued", logfields.Trigger(trigger.Source), "detail", trigger.Detail, "coalesced", coalesced)
	return coalesced
}

// Pending reports whether a run is waiting to start.
func (q *Queue) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending != nil
}

// Run processes triggers until ctx is done. It must be called from a single goroutine.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		}
		q.mu.Lock()
		next := q.pending
		q.pending = nil
		q.mu.Unlock()
		if next == nil {
			continue
		}
		q.run(ctx, *next)
	}
}
