package git

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/sitepipe/internal/config"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
)

// Client handles Git operations inside a workspace directory.
type Client struct {
	workspaceDir string
}

// NewClient creates a new Git client with the specified workspace directory.
func NewClient(workspaceDir string) *Client { return &Client{workspaceDir: workspaceDir} }

// Checkout describes a cloned repository.
type Checkout struct {
	Path   string
	Branch string
	Commit string
}

// Clone clones repo into <workspace>/<name>, replacing any previous checkout.
// Only the configured branch is fetched.
func (c *Client) Clone(ctx context.Context, name string, repo config.RepositoryConfig) (*Checkout, error) {
	repoPath := filepath.Join(c.workspaceDir, name)
	slog.Debug("Cloning repository", logfields.URL(repo.URL), logfields.Branch(repo.Branch), logfields.Path(repoPath))
	if err := os.RemoveAll(repoPath); err != nil {
		return nil, fmt.Errorf("failed to remove existing directory: %w", err)
	}

	opts := &git.CloneOptions{URL: repo.URL, Tags: git.NoTags}
	if repo.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(repo.Branch)
		opts.SingleBranch = true
	}
	auth, err := Auth(repo.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to setup authentication: %w", err)
	}
	opts.Auth = auth

	repository, err := git.PlainCloneContext(ctx, repoPath, false, opts)
	if err != nil {
		return nil, classifyRemoteError("clone", repo.URL, err)
	}
	ref, err := repository.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	co := &Checkout{Path: repoPath, Branch: ref.Name().Short(), Commit: ref.Hash().String()}
	slog.Info("Repository cloned", logfields.URL(repo.URL), logfields.Branch(co.Branch), slog.String("commit", co.Commit[:8]))
	return co, nil
}
