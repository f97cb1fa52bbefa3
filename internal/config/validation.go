package config

import (
	"fmt"
	"time"

	derrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
)

// Validate checks cross-field constraints after defaults have been applied.
// Target settings are checked by PublishConfig.Validate.
func Validate(cfg *Config) error {
	if r := cfg.Source.Repository; r != nil {
		if r.URL == "" {
			return invalid("source.repository.url is required when a repository is configured")
		}
		if err := validateAuth("source.repository.auth", r.Auth); err != nil {
			return err
		}
	}

	switch cfg.Publish.Target {
	case "", TargetDirectory, TargetGit, TargetArchive:
	default:
		return invalid(fmt.Sprintf("unknown publish target %q", cfg.Publish.Target))
	}

	for name, value := range map[string]string{
		"watch.debounce": cfg.Watch.Debounce,
		"watch.interval": cfg.Watch.Interval,
	} {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return invalid(fmt.Sprintf("%s must be a non-negative duration, got %q", name, value))
		}
	}
	return nil
}

// Validate checks the settings of the selected target, deploy credentials
// included. It runs only when a publisher is built, so build-only commands
// work without them.
func (p PublishConfig) Validate() error {
	switch p.Target {
	case "":
		return invalid("no publish target configured")
	case TargetDirectory:
		if p.Directory.Root == "" {
			return invalid("publish.directory.root is required for the directory target")
		}
	case TargetGit:
		if p.Git.URL == "" {
			return invalid("publish.git.url is required for the git target")
		}
		return validateAuth("publish.git.auth", p.Git.Auth)
	case TargetArchive:
		if p.Archive.Path == "" {
			return invalid("publish.archive.path is required for the archive target")
		}
	default:
		return invalid(fmt.Sprintf("unknown publish target %q", p.Target))
	}
	return nil
}

func validateAuth(field string, auth *AuthConfig) error {
	if auth == nil {
		return nil
	}
	switch auth.Type {
	case "", AuthNone:
	case AuthToken:
		if auth.Token == "" {
			return invalid(field + ".token is required for token auth")
		}
	case AuthBasic:
		if auth.Username == "" || auth.Password == "" {
			return invalid(field + " basic auth needs username and password")
		}
	case AuthSSH:
		if auth.KeyPath == "" {
			return invalid(field + ".key_path is required for ssh auth")
		}
	default:
		return invalid(fmt.Sprintf("%s.type %q is not supported", field, auth.Type))
	}
	return nil
}

func invalid(msg string) error {
	return derrors.ConfigError(msg).Build()
}
