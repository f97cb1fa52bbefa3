package publish

import (
	"context"

	"git.home.luguber.info/inful/sitepipe/internal/config"
	"git.home.luguber.info/inful/sitepipe/internal/git"
	"git.home.luguber.info/inful/sitepipe/internal/site"
)

// GitTarget force-pushes the artifact tree as a single commit to a branch,
// the way GitHub Pages style hosting expects.
type GitTarget struct {
	cfg     config.GitTarget
	workDir string
}

// NewGitTarget returns a git target using workDir for its scratch clone.
func NewGitTarget(cfg config.GitTarget, workDir string) *GitTarget {
	return &GitTarget{cfg: cfg, workDir: workDir}
}

func (t *GitTarget) Name() string { return "git" }

func (t *GitTarget) Transfer(ctx context.Context, art *site.Artifact, _ *Bundle) (*Receipt, error) {
	auth, err := git.Auth(t.cfg.Auth)
	if err != nil {
		return nil, err
	}
	hash, err := git.NewClient(t.workDir).PushTree(ctx, git.PushRequest{
		Dir:         art.Dir,
		URL:         t.cfg.URL,
		Branch:      t.cfg.Branch,
		Message:     t.cfg.Message,
		AuthorName:  t.cfg.AuthorName,
		AuthorEmail: t.cfg.AuthorEmail,
		Auth:        auth,
	})
	if err != nil {
		return nil, err
	}
	return &Receipt{Location: t.cfg.URL + "@" + t.cfg.Branch, Revision: hash}, nil
}
