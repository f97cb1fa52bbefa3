package testutil

import (
	"os"
	"testing"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitepipe/internal/config"
)

// ConfigBuilder provides a fluent interface for creating test configurations.
type ConfigBuilder struct {
	config *config.Config
	t      *testing.T
}

// NewConfigBuilder starts from the defaults with a test site title.
func NewConfigBuilder(t *testing.T) *ConfigBuilder {
	cfg := config.Default()
	cfg.Site.Title = "Test Blog"
	return &ConfigBuilder{config: cfg, t: t}
}

// WithBaseURL sets the site base URL, enabling feeds.
func (cb *ConfigBuilder) WithBaseURL(u string) *ConfigBuilder {
	cb.config.Site.BaseURL = u
	return cb
}

// WithSource sets the local content directory.
func (cb *ConfigBuilder) WithSource(dir string) *ConfigBuilder {
	cb.config.Source.Directory = dir
	return cb
}

// WithOutputDir sets the output directory.
func (cb *ConfigBuilder) WithOutputDir(dir string) *ConfigBuilder {
	cb.config.Output.Directory = dir
	return cb
}

// WithDirectoryTarget publishes into root keeping keep releases.
func (cb *ConfigBuilder) WithDirectoryTarget(root string, keep int) *ConfigBuilder {
	cb.config.Publish.Target = config.TargetDirectory
	cb.config.Publish.Directory = config.DirectoryTarget{Root: root, Keep: keep}
	return cb
}

// WithGitTarget force-pushes to url using token auth with token.
func (cb *ConfigBuilder) WithGitTarget(url, token string) *ConfigBuilder {
	cb.config.Publish.Target = config.TargetGit
	cb.config.Publish.Git = config.GitTarget{
		URL:  url,
		Auth: &config.AuthConfig{Type: config.AuthToken, Token: token},
	}
	return cb
}

// WithLedger enables the run ledger at path.
func (cb *ConfigBuilder) WithLedger(path string) *ConfigBuilder {
	cb.config.State.Database = path
	return cb
}

// Build returns the configuration with defaults applied.
func (cb *ConfigBuilder) Build() *config.Config {
	config.ApplyDefaults(cb.config)
	return cb.config
}

// BuildAndSave writes the configuration as YAML to path and returns it.
func (cb *ConfigBuilder) BuildAndSave(path string) *config.Config {
	cb.t.Helper()
	cfg := cb.Build()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		cb.t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		cb.t.Fatalf("write config: %v", err)
	}
	return cfg
}
