package git

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/sitepipe/internal/config"
)

// Auth returns a go-git AuthMethod for cfg. A nil config or type "none"
// yields nil, nil.
func Auth(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	if cfg == nil {
		return nil, nil
	}
	switch cfg.Type {
	case "", config.AuthNone:
		return nil, nil
	case config.AuthToken:
		if cfg.Token == "" {
			return nil, &AuthError{Op: "auth", Err: fmt.Errorf("token authentication requires a token")}
		}
		username := cfg.Username
		if username == "" {
			username = "token"
		}
		return &http.BasicAuth{Username: username, Password: cfg.Token}, nil
	case config.AuthBasic:
		if cfg.Username == "" || cfg.Password == "" {
			return nil, &AuthError{Op: "auth", Err: fmt.Errorf("basic authentication requires username and password")}
		}
		return &http.BasicAuth{Username: cfg.Username, Password: cfg.Password}, nil
	case config.AuthSSH:
		keyPath := cfg.KeyPath
		if keyPath == "" {
			keyPath = filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa")
		}
		keys, err := ssh.NewPublicKeysFromFile("git", keyPath, cfg.Password)
		if err != nil {
			return nil, &AuthError{Op: "auth", Err: fmt.Errorf("failed to load SSH key from %s: %w", keyPath, err)}
		}
		return keys, nil
	default:
		return nil, &AuthError{Op: "auth", Err: fmt.Errorf("unsupported authentication type %q", cfg.Type)}
	}
}
