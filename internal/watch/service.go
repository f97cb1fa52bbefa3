package watch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/sitepipe/internal/config"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/metrics"
	"git.home.luguber.info/inful/sitepipe/internal/pipeline"
)

// Runner is the part of pipeline.Runner the service drives.
type Runner interface {
	Run(ctx context.Context, trigger pipeline.Trigger) (*pipeline.RunResult, error)
	State() pipeline.State
}

// Options configures a Service. Zero values disable the matching trigger.
type Options struct {
	SourceDir   string   // watched with fsnotify when set
	Ignore      []string // directories below SourceDir that never trigger runs
	Debounce    time.Duration
	Interval    time.Duration
	Listen      string
	WebhookPath string
	Branch      string
	Secret      string
	MetricsPath string
	Metrics     http.Handler
	Recorder    metrics.Recorder
	RunOnStart  bool
}

// Service wires the triggers to a single run queue.
type Service struct {
	opts   Options
	runner Runner
	queue  *Queue
}

// NewService returns a service that runs runner for every trigger.
func NewService(opts Options, runner Runner) *Service {
	s := &Service{opts: opts, runner: runner}
	s.queue = NewQueue(s.runOnce, opts.Recorder)
	return s
}

// Queue returns the run queue.
func (s *Service) Queue() *Queue { return s.queue }

func (s *Service) runOnce(ctx context.Context, trigger pipeline.Trigger) {
	res, err := s.runner.Run(ctx, trigger)
	if errors.Is(err, pipeline.ErrRunInProgress) {
		// a run started outside the queue; try again once it is done
		slog.Warn("Run in progress, re-queueing trigger", logfields.Trigger(trigger.Source))
		time.AfterFunc(time.Second, func() { s.queue.Enqueue(trigger) })
		return
	}
	if res != nil && err == nil {
		slog.Info("Triggered run complete", logfields.RunID(res.ID), logfields.State(string(res.State)))
	}
}

// Run starts every configured trigger and processes runs until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	if s.opts.SourceDir != "" {
		w, err := NewSourceWatcher(s.opts.SourceDir, s.opts.Debounce, s.queue, s.opts.Ignore...)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
	}

	if s.opts.Interval > 0 {
		sched, err := NewScheduler(s.opts.Interval, s.queue)
		if err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				slog.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	if s.opts.Listen != "" {
		srv, err := NewServer(s.opts.Listen, s.mux())
		if err != nil {
			return err
		}
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Warn("HTTP server shutdown failed", logfields.Error(err))
			}
		}()
	}

	if s.opts.RunOnStart {
		s.queue.Enqueue(pipeline.Trigger{Source: pipeline.TriggerCLI, Detail: "startup"})
	}

	slog.Info("Watch mode started")
	s.queue.Run(ctx)
	slog.Info("Watch mode stopped")
	return nil
}

func (s *Service) mux() *http.ServeMux {
	mux := http.NewServeMux()
	path := s.opts.WebhookPath
	if path == "" {
		path = config.DefaultWebhookPath
	}
	mux.Handle(path, NewWebhookHandler(s.queue, s.opts.Branch, s.opts.Secret))
	if s.opts.Metrics != nil && s.opts.MetricsPath != "" {
		mux.Handle(s.opts.MetricsPath, s.opts.Metrics)
	}
	mux.Handle("/healthz", HealthHandler(func() string { return string(s.runner.State()) }))
	return mux
}
