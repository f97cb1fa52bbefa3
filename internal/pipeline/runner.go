package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitepipe/internal/events"
	"git.home.luguber.info/inful/sitepipe/internal/ledger"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/metrics"
	"git.home.luguber.info/inful/sitepipe/internal/publish"
	"git.home.luguber.info/inful/sitepipe/internal/site"
	"git.home.luguber.info/inful/sitepipe/internal/source"
)

// Trigger sources.
const (
	TriggerCLI      = "cli"
	TriggerFSNotify = "fsnotify"
	TriggerSchedule = "schedule"
	TriggerWebhook  = "webhook"
)

// Trigger describes what started a run.
type Trigger struct {
	Source string
	Detail string // e.g. changed path or pushed ref
}

// SourceResolver yields the content tree for a run.
type SourceResolver interface {
	Resolve(ctx context.Context) (*source.Snapshot, error)
}

// SiteBuilder renders a content tree.
type SiteBuilder interface {
	Build(ctx context.Context, sourceRoot string) (*site.Artifact, error)
}

// Publisher deploys a built artifact.
type Publisher interface {
	Publish(ctx context.Context, art *site.Artifact) (*publish.Result, error)
	TargetName() string
}

// RunResult is the outcome of one run.
type RunResult struct {
	ID       string
	Trigger  Trigger
	State    State
	Started  time.Time
	Finished time.Time
	Commit   string
	Artifact *site.Artifact  // nil unless the build succeeded
	Publish  *publish.Result // nil unless published
	Err      error
}

// Duration is the wall time of the run.
func (r *RunResult) Duration() time.Duration { return r.Finished.Sub(r.Started) }

// Runner executes pipeline runs, one at a time.
type Runner struct {
	mu sync.Mutex // held for the duration of a run

	source    SourceResolver
	builder   SiteBuilder
	publisher Publisher // nil runs build only

	recorder metrics.Recorder
	ledger   ledger.Store
	notifier events.Notifier
	newID    func() string

	stateMu sync.RWMutex
	state   State
}

// Option customizes a Runner.
type Option func(*Runner)

// WithPublisher enables the publish phase.
func WithPublisher(p Publisher) Option { return func(r *Runner) { r.publisher = p } }

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) Option { return func(r *Runner) { r.recorder = rec } }

// WithLedger records runs and transitions in store.
func WithLedger(store ledger.Store) Option { return func(r *Runner) { r.ledger = store } }

// WithNotifier emits run events through n.
func WithNotifier(n events.Notifier) Option { return func(r *Runner) { r.notifier = n } }

// NewRunner returns an idle runner.
func NewRunner(src SourceResolver, builder SiteBuilder, opts ...Option) *Runner {
	r := &Runner{
		source:   src,
		builder:  builder,
		recorder: metrics.NoopRecorder{},
		notifier: events.Noop{},
		newID:    uuid.NewString,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the state of the run in progress, or idle.
func (r *Runner) State() State {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.state
}

// Run executes build and, when a publisher is configured, publish. It returns
// ErrRunInProgress without side effects when another run is active. The
// returned error is the classified error of the failing phase; the result is
// always non-nil once the run started.
func (r *Runner) Run(ctx context.Context, trigger Trigger) (*RunResult, error) {
	if !r.mu.TryLock() {
		slog.Warn("Run rejected, another run is in progress", logfields.Trigger(trigger.Source))
		return nil, ErrRunInProgress
	}
	defer r.mu.Unlock()
	defer r.setState(StateIdle)

	res := &RunResult{ID: r.newID(), Trigger: trigger, State: StateIdle, Started: time.Now()}
	log := slog.With(logfields.RunID(res.ID), logfields.Trigger(trigger.Source))
	log.Info("Run started", "detail", trigger.Detail)

	r.transition(ctx, log, res, StateBuilding)
	art, err := r.build(ctx, log, res)
	if err != nil {
		return r.fail(ctx, log, res, StateBuildFailed, err)
	}
	res.Artifact = art
	r.transition(ctx, log, res, StateBuildSucceeded)

	if r.publisher == nil {
		return r.finish(ctx, log, res), nil
	}

	r.transition(ctx, log, res, StatePublishing)
	start := time.Now()
	pub, err := r.publisher.Publish(ctx, art)
	r.recorder.ObservePublishDuration(r.publisher.TargetName(), time.Since(start), err == nil)
	if err != nil {
		return r.fail(ctx, log, res, StatePublishFailed, err)
	}
	res.Publish = pub
	r.recorder.SetLastPublished(time.Now())
	r.transition(ctx, log, res, StatePublished)
	return r.finish(ctx, log, res), nil
}

func (r *Runner) build(ctx context.Context, log *slog.Logger, res *RunResult) (*site.Artifact, error) {
	snap, err := r.source.Resolve(ctx)
	if err != nil {
		r.recorder.IncBuildOutcome(string(site.OutcomeFailed))
		return nil, err
	}
	defer func() {
		if rerr := snap.Release(); rerr != nil {
			log.Warn("Failed to release source snapshot", logfields.Error(rerr))
		}
	}()
	res.Commit = snap.Commit

	art, err := r.builder.Build(ctx, snap.Root)
	if err != nil {
		outcome := site.OutcomeFailed
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = site.OutcomeCanceled
		}
		r.recorder.IncBuildOutcome(string(outcome))
		return nil, err
	}
	r.observeReport(art.Report)
	if art.Report != nil {
		log.Info("Build report", "summary", art.Report.Summary())
		for _, is := range art.Report.Issues {
			log.Warn("Content issue", "code", string(is.Code), logfields.File(is.Path), "message", is.Message)
		}
	}
	return art, nil
}

func (r *Runner) observeReport(rep *site.Report) {
	if rep == nil {
		return
	}
	for stage, d := range rep.StageDurations {
		r.recorder.ObserveStageDuration(string(stage), d)
		result := metrics.ResultSuccess
		if kind, ok := rep.StageErrors[stage]; ok {
			result = metrics.ResultLabel(kind)
		}
		r.recorder.IncStageResult(string(stage), result)
	}
	r.recorder.ObserveBuildDuration(rep.Duration())
	r.recorder.IncBuildOutcome(string(rep.Outcome))
}

func (r *Runner) fail(ctx context.Context, log *slog.Logger, res *RunResult, state State, err error) (*RunResult, error) {
	res.Err = err
	r.transition(ctx, log, res, state)
	return r.finish(ctx, log, res), err
}

func (r *Runner) finish(ctx context.Context, log *slog.Logger, res *RunResult) *RunResult {
	res.Finished = time.Now()
	r.record(ctx, log, res)
	attrs := []any{logfields.State(string(res.State)), logfields.DurationMS(float64(res.Duration().Milliseconds()))}
	if res.Publish != nil {
		attrs = append(attrs, logfields.Target(res.Publish.Target), "location", res.Publish.Location)
	}
	if res.Err != nil {
		log.Error("Run failed", append(attrs, logfields.Error(res.Err))...)
	} else {
		log.Info("Run finished", attrs...)
	}
	return res
}

// transition moves the run to next and fans the change out to the ledger,
// metrics and notifier. Ledger and notifier failures are logged only.
func (r *Runner) transition(ctx context.Context, log *slog.Logger, res *RunResult, next State) {
	if !res.State.CanTransition(next) {
		log.Error("Illegal run state transition", "from", string(res.State), "to", string(next))
		return
	}
	res.State = next
	r.setState(next)
	log.Info("Run state changed", logfields.State(string(next)))
	r.recorder.IncRunState(string(next))

	// hooks still fire when the run's context was canceled
	hookCtx := context.WithoutCancel(ctx)
	if r.ledger != nil {
		detail := ""
		if res.Err != nil {
			detail = res.Err.Error()
		}
		if err := r.ledger.AppendTransition(hookCtx, ledger.Transition{RunID: res.ID, State: string(next), At: time.Now(), Detail: detail}); err != nil {
			log.Warn("Failed to record run transition", logfields.Error(err))
		}
		r.record(hookCtx, log, res)
	}
	if err := r.notifier.Notify(hookCtx, eventFor(res)); err != nil {
		log.Warn("Failed to emit run event", logfields.Error(err))
	}
}

func (r *Runner) record(ctx context.Context, log *slog.Logger, res *RunResult) {
	if r.ledger == nil {
		return
	}
	if err := r.ledger.Record(context.WithoutCancel(ctx), ledgerRun(res)); err != nil {
		log.Warn("Failed to record run", logfields.Error(err))
	}
}

func (r *Runner) setState(s State) {
	r.stateMu.Lock()
	r.state = s
	r.stateMu.Unlock()
}

func ledgerRun(res *RunResult) *ledger.Run {
	run := &ledger.Run{
		ID:       res.ID,
		Trigger:  res.Trigger.Source,
		State:    string(res.State),
		Started:  res.Started,
		Finished: res.Finished,
		Commit:   res.Commit,
	}
	if art := res.Artifact; art != nil {
		run.Items, run.Skipped, run.Indexed = art.Items, art.Skipped, art.Indexed
		run.Digest = art.Digest()
	}
	if pub := res.Publish; pub != nil {
		run.Target, run.Location, run.Revision = pub.Target, pub.Location, pub.Revision
	}
	if res.Err != nil {
		run.Error = res.Err.Error()
	}
	return run
}

func eventFor(res *RunResult) events.Event {
	ev := events.Event{
		RunID:   res.ID,
		Trigger: res.Trigger.Source,
		State:   string(res.State),
		Time:    time.Now(),
	}
	if res.Err != nil {
		ev.Error = res.Err.Error()
	}
	if res.Artifact != nil {
		ev.Digest = res.Artifact.Digest()
	}
	if res.Publish != nil {
		ev.Location = res.Publish.Location
	}
	return ev
}
