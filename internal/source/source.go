// Package source resolves the content source root for a run: a local
// directory, or a fresh clone of the configured git repository.
package source

import (
	"context"
	"errors"
	"path/filepath"

	"git.home.luguber.info/inful/sitepipe/internal/config"
	derrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/git"
	"git.home.luguber.info/inful/sitepipe/internal/workspace"
)

// Snapshot is a resolved content tree.
type Snapshot struct {
	Root   string // directory handed to the builder
	Commit string // empty for local sources
	Branch string
	ws     *workspace.Manager
}

// Release removes the clone of a git snapshot. It is a no-op for local ones.
func (s *Snapshot) Release() error {
	if s == nil || s.ws == nil {
		return nil
	}
	return s.ws.Cleanup()
}

// Resolver produces a Snapshot per run. Sources are re-read for every run;
// nothing is cached between runs.
type Resolver struct {
	cfg        config.SourceConfig
	baseDir    string
	persistent bool
}

// NewResolver returns a resolver. Clones go below baseDir (temp dir when
// empty); persistent reuses one fixed checkout directory instead of a fresh
// directory per run.
func NewResolver(cfg config.SourceConfig, baseDir string, persistent bool) *Resolver {
	return &Resolver{cfg: cfg, baseDir: baseDir, persistent: persistent}
}

// Resolve returns the source root for a run.
func (r *Resolver) Resolve(ctx context.Context) (*Snapshot, error) {
	if r.cfg.Repository == nil {
		return &Snapshot{Root: r.cfg.Directory}, nil
	}

	var ws *workspace.Manager
	if r.persistent {
		ws = workspace.NewPersistentManager(r.baseDir, "sitepipe-source")
	} else {
		ws = workspace.NewManager(r.baseDir)
	}
	if err := ws.Create(); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create workspace").
			Fatal().WithContext("path", r.baseDir).Build()
	}

	repo := *r.cfg.Repository
	co, err := git.NewClient(ws.GetPath()).Clone(ctx, "repo", repo)
	if err != nil {
		_ = ws.Cleanup()
		return nil, classifyCloneError(repo.URL, err)
	}

	return &Snapshot{
		Root:   filepath.Join(co.Path, filepath.FromSlash(r.cfg.Directory)),
		Commit: co.Commit,
		Branch: co.Branch,
		ws:     ws,
	}, nil
}

func classifyCloneError(url string, err error) error {
	var authErr *git.AuthError
	if errors.As(err, &authErr) {
		return derrors.WrapError(err, derrors.CategoryAuth, "repository authentication failed").
			UserAction().WithContext("url", url).Build()
	}
	var nf *git.NotFoundError
	if errors.As(err, &nf) {
		return derrors.WrapError(err, derrors.CategoryGit, "repository not found").
			Fatal().UserAction().WithContext("url", url).Build()
	}
	return derrors.WrapError(err, derrors.CategoryGit, "failed to clone content repository").
		Retryable().WithContext("url", url).Build()
}
