// Package config loads and validates the sitepipe YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
)

// Config represents the application configuration.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Source   SourceConfig   `yaml:"source"`
	Markdown MarkdownConfig `yaml:"markdown"`
	Output   OutputConfig   `yaml:"output"`
	Publish  PublishConfig  `yaml:"publish"`
	Watch    WatchConfig    `yaml:"watch"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Events   EventsConfig   `yaml:"events"`
	State    StateConfig    `yaml:"state"`
}

// SiteConfig holds values exposed to every template.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
	Author      string `yaml:"author,omitempty"`
	Language    string `yaml:"language,omitempty"`
	DateFormat  string `yaml:"date_format,omitempty"` // Go layout used on listing pages
}

// SourceConfig describes where content comes from.
type SourceConfig struct {
	Directory  string            `yaml:"directory"`
	Extension  string            `yaml:"extension,omitempty"`
	LayoutsDir string            `yaml:"layouts_dir,omitempty"` // relative to Directory
	Repository *RepositoryConfig `yaml:"repository,omitempty"`
}

// RepositoryConfig points at a git repository holding the content tree.
// When set, Directory is interpreted relative to the repository root.
type RepositoryConfig struct {
	URL    string      `yaml:"url"`
	Branch string      `yaml:"branch,omitempty"`
	Auth   *AuthConfig `yaml:"auth,omitempty"`
}

// AuthConfig represents git authentication.
type AuthConfig struct {
	Type     AuthType `yaml:"type"`
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Token    string   `yaml:"token,omitempty"`
	KeyPath  string   `yaml:"key_path,omitempty"`
}

// AuthType selects the git authentication method.
type AuthType string

const (
	AuthNone  AuthType = "none"
	AuthToken AuthType = "token"
	AuthBasic AuthType = "basic"
	AuthSSH   AuthType = "ssh"
)

// MarkdownConfig tunes the Markdown renderer.
type MarkdownConfig struct {
	RawHTML  bool  `yaml:"raw_html"`
	Sanitize *bool `yaml:"sanitize,omitempty"`
}

// ShouldSanitize reports whether rendered HTML passes through the sanitizer.
// Sanitizing defaults to on whenever raw HTML is allowed.
func (m MarkdownConfig) ShouldSanitize() bool {
	if !m.RawHTML {
		return false
	}
	return m.Sanitize == nil || *m.Sanitize
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// TargetType selects the publish target.
type TargetType string

const (
	TargetDirectory TargetType = "directory"
	TargetGit       TargetType = "git"
	TargetArchive   TargetType = "archive"
)

// PublishConfig selects and configures the hosting target.
type PublishConfig struct {
	Target    TargetType      `yaml:"target"`
	Directory DirectoryTarget `yaml:"directory,omitempty"`
	Git       GitTarget       `yaml:"git,omitempty"`
	Archive   ArchiveTarget   `yaml:"archive,omitempty"`
}

// DirectoryTarget publishes into releases under Root and swaps a "current" symlink.
type DirectoryTarget struct {
	Root string `yaml:"root"`
	Keep int    `yaml:"keep,omitempty"`
}

// GitTarget force-pushes the artifact to a branch.
type GitTarget struct {
	URL         string      `yaml:"url"`
	Branch      string      `yaml:"branch,omitempty"`
	Message     string      `yaml:"message,omitempty"`
	AuthorName  string      `yaml:"author_name,omitempty"`
	AuthorEmail string      `yaml:"author_email,omitempty"`
	Auth        *AuthConfig `yaml:"auth,omitempty"`
}

// ArchiveTarget writes the bundle to a file.
type ArchiveTarget struct {
	Path string `yaml:"path"`
}

// WatchConfig configures the long-running watch mode.
type WatchConfig struct {
	Debounce      string `yaml:"debounce,omitempty"`
	Interval      string `yaml:"interval,omitempty"` // periodic rebuild, empty disables
	Listen        string `yaml:"listen,omitempty"`   // webhook + metrics listener, empty disables
	WebhookPath   string `yaml:"webhook_path,omitempty"`
	WebhookSecret string `yaml:"webhook_secret,omitempty"`
	Branch        string `yaml:"branch,omitempty"` // push events for other branches are ignored
}

// DebounceDuration returns the parsed debounce window.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, _ := time.ParseDuration(w.Debounce)
	return d
}

// IntervalDuration returns the parsed rebuild interval (zero when disabled).
func (w WatchConfig) IntervalDuration() time.Duration {
	d, _ := time.ParseDuration(w.Interval)
	return d
}

// MetricsConfig enables the Prometheus endpoint on the watch listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// EventsConfig configures run lifecycle notifications over NATS.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// StateConfig locates the run ledger.
type StateConfig struct {
	Database string `yaml:"database,omitempty"`
}

// Load loads configuration from the specified file. Environment variables
// from .env/.env.local are loaded first and ${VAR} references are expanded.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, derrors.WrapError(err, derrors.CategoryConfig, "configuration file not found").
				Fatal().UserAction().
				WithContext("path", configPath).
				Build()
		}
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to read config file").
			Fatal().WithContext("path", configPath).Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		if ce, ok := derrors.AsClassified(err); ok {
			return nil, ce.WithContext("path", configPath)
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes, defaults and validates raw YAML. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to unmarshal config").
			Fatal().UserAction().Build()
	}

	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with defaults applied, used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return derrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Config{
		Site: SiteConfig{
			Title:       "My Blog",
			Description: "Notes and essays",
			BaseURL:     "https://example.github.io",
			Author:      "Jane Doe",
		},
		Source: SourceConfig{Directory: "content"},
		Output: OutputConfig{Directory: "./public"},
		Publish: PublishConfig{
			Target: TargetGit,
			Git: GitTarget{
				URL:    "https://github.com/example/example.github.io.git",
				Branch: "gh-pages",
				Auth:   &AuthConfig{Type: AuthToken, Token: "${GITHUB_TOKEN}"},
			},
		},
		Watch: WatchConfig{Debounce: "2s", Branch: "main"},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
