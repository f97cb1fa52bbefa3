package watch

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sitepipe/internal/pipeline"
)

// Scheduler enqueues a run on a fixed interval.
type Scheduler struct {
	scheduler gocron.Scheduler
	queue     *Queue
}

// NewScheduler creates a scheduler that enqueues into q every interval.
func NewScheduler(interval time.Duration, q *Queue) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("schedule interval must be > 0, got %s", interval)
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	sched := &Scheduler{scheduler: s, queue: q}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(sched.tick),
		gocron.WithName("periodic-run"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create periodic run job: %w", err)
	}
	return sched, nil
}

func (s *Scheduler) tick() {
	s.queue.Enqueue(pipeline.Trigger{Source: pipeline.TriggerSchedule})
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop shuts the scheduler down.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}
