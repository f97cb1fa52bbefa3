package config

import "strings"

const (
	DefaultContentExtension = ".md"
	DefaultLayoutsDir       = "_layouts"
	DefaultDateFormat       = "January 2, 2006"
	DefaultOutputDirectory  = "./public"
	DefaultReleasesKept     = 3
	DefaultGitBranch        = "gh-pages"
	DefaultCommitMessage    = "Publish site"
	DefaultWebhookPath      = "/hooks/push"
	DefaultMetricsPath      = "/metrics"
	DefaultEventsSubject    = "sitepipe.runs"
	DefaultDebounce         = "2s"
	DefaultWatchBranch      = "main"
)

// ApplyDefaults fills unset fields. It is idempotent.
func ApplyDefaults(cfg *Config) {
	if cfg.Site.Title == "" {
		cfg.Site.Title = "Blog"
	}
	if cfg.Site.Language == "" {
		cfg.Site.Language = "en"
	}
	if cfg.Site.DateFormat == "" {
		cfg.Site.DateFormat = DefaultDateFormat
	}
	cfg.Site.BaseURL = strings.TrimRight(cfg.Site.BaseURL, "/")

	if cfg.Source.Directory == "" {
		cfg.Source.Directory = "."
	}
	if cfg.Source.Extension == "" {
		cfg.Source.Extension = DefaultContentExtension
	}
	if !strings.HasPrefix(cfg.Source.Extension, ".") {
		cfg.Source.Extension = "." + cfg.Source.Extension
	}
	if cfg.Source.LayoutsDir == "" {
		cfg.Source.LayoutsDir = DefaultLayoutsDir
	}
	if r := cfg.Source.Repository; r != nil && r.Branch == "" {
		r.Branch = DefaultWatchBranch
	}

	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDirectory
	}

	if cfg.Publish.Target == TargetDirectory && cfg.Publish.Directory.Keep <= 0 {
		cfg.Publish.Directory.Keep = DefaultReleasesKept
	}
	if cfg.Publish.Target == TargetGit {
		g := &cfg.Publish.Git
		if g.Branch == "" {
			g.Branch = DefaultGitBranch
		}
		if g.Message == "" {
			g.Message = DefaultCommitMessage
		}
		if g.AuthorName == "" {
			g.AuthorName = "sitepipe"
		}
		if g.AuthorEmail == "" {
			g.AuthorEmail = "sitepipe@localhost"
		}
	}

	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = DefaultDebounce
	}
	if cfg.Watch.WebhookPath == "" {
		cfg.Watch.WebhookPath = DefaultWebhookPath
	}
	if cfg.Watch.Branch == "" {
		cfg.Watch.Branch = DefaultWatchBranch
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = DefaultEventsSubject
	}
}
