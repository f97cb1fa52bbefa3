package commands

import (
	"log/slog"

	"git.home.luguber.info/inful/sitepipe/internal/config"
	"git.home.luguber.info/inful/sitepipe/internal/events"
	"git.home.luguber.info/inful/sitepipe/internal/ledger"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/metrics"
	"git.home.luguber.info/inful/sitepipe/internal/pipeline"
	"git.home.luguber.info/inful/sitepipe/internal/publish"
	"git.home.luguber.info/inful/sitepipe/internal/site"
	"git.home.luguber.info/inful/sitepipe/internal/source"
)

type appOptions struct {
	publish    bool   // run the publish phase
	persistent bool   // reuse one source checkout across runs
	output     string // overrides output.directory
	recorder   metrics.Recorder
}

// app is the assembled pipeline for one command invocation.
type app struct {
	cfg      *config.Config
	builder  *site.Builder
	runner   *pipeline.Runner
	store    ledger.Store
	notifier events.Notifier
}

func newApp(cfg *config.Config, opts appOptions) (*app, error) {
	a := &app{cfg: cfg}

	var builderOpts []site.Option
	if opts.output != "" {
		builderOpts = append(builderOpts, site.WithOutputDir(opts.output))
	}
	a.builder = site.NewBuilder(cfg, builderOpts...)

	runnerOpts := []pipeline.Option{}
	if opts.recorder != nil {
		runnerOpts = append(runnerOpts, pipeline.WithRecorder(opts.recorder))
	}
	if opts.publish {
		pub, err := publish.NewFromConfig(cfg.Publish, "")
		if err != nil {
			return nil, err
		}
		runnerOpts = append(runnerOpts, pipeline.WithPublisher(pub))
	}

	if cfg.State.Database != "" {
		store, err := openLedger(cfg.State.Database)
		if err != nil {
			return nil, err
		}
		a.store = store
		runnerOpts = append(runnerOpts, pipeline.WithLedger(store))
	}

	notifier, err := events.New(cfg.Events)
	if err != nil {
		slog.Warn("Run events disabled", logfields.Error(err))
		notifier = events.Noop{}
	}
	a.notifier = notifier
	runnerOpts = append(runnerOpts, pipeline.WithNotifier(notifier))

	resolver := source.NewResolver(cfg.Source, "", opts.persistent)
	a.runner = pipeline.NewRunner(resolver, a.builder, runnerOpts...)
	return a, nil
}

// Close releases the ledger and notifier.
func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Warn("Failed to close run ledger", logfields.Error(err))
		}
	}
	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			slog.Warn("Failed to close event notifier", logfields.Error(err))
		}
	}
}
