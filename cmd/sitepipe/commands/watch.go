package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/sitepipe/internal/config"
	derrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/metrics"
	"git.home.luguber.info/inful/sitepipe/internal/site"
	"git.home.luguber.info/inful/sitepipe/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Listen    string `help:"Override watch.listen (webhook and metrics address)"`
	BuildOnly bool   `name:"build-only" help:"Rebuild on changes without publishing"`
	NoInitial bool   `name:"no-initial" help:"Do not run once at startup"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	if w.Listen != "" {
		cfg.Watch.Listen = w.Listen
	}

	var (
		recorder metrics.Recorder = metrics.NoopRecorder{}
		registry *prom.Registry
	)
	if cfg.Metrics.Enabled {
		registry = prom.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	a, err := newApp(cfg, appOptions{publish: !w.BuildOnly, persistent: true, recorder: recorder})
	if err != nil {
		return err
	}
	defer a.Close()

	opts, err := watchOptions(cfg, a.builder.OutputDir())
	if err != nil {
		return err
	}
	opts.Recorder = recorder
	opts.RunOnStart = !w.NoInitial
	if registry != nil {
		opts.Metrics = metrics.HTTPHandler(registry)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watch.NewService(opts, a.runner).Run(ctx)
}

// watchOptions maps configuration onto the watch service. File watching is
// only possible for local sources; git sources rely on webhooks and the schedule.
func watchOptions(cfg *config.Config, output string) (watch.Options, error) {
	opts := watch.Options{
		Debounce:    cfg.Watch.DebounceDuration(),
		Interval:    cfg.Watch.IntervalDuration(),
		Listen:      cfg.Watch.Listen,
		WebhookPath: cfg.Watch.WebhookPath,
		Branch:      cfg.Watch.Branch,
		Secret:      cfg.Watch.WebhookSecret,
		MetricsPath: cfg.Metrics.Path,
	}
	if cfg.Source.Repository == nil {
		opts.SourceDir = cfg.Source.Directory
		if abs, err := filepath.Abs(output); err == nil {
			opts.Ignore = site.OwnedDirs(abs)
		}
	}
	if opts.SourceDir == "" && opts.Interval == 0 && opts.Listen == "" {
		return opts, derrors.ConfigError("watch needs a local source, watch.interval or watch.listen").Build()
	}
	if cfg.Source.Repository != nil && opts.Listen == "" && opts.Interval == 0 {
		slog.Warn("Git source without webhook listener or interval; only the startup run will happen")
	}
	return opts, nil
}
