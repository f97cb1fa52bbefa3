package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/sitepipe/internal/logfields"
)

// ErrPushNotConfirmed is returned when the remote does not report the pushed
// commit on the target branch after a push.
var ErrPushNotConfirmed = errors.New("remote did not confirm pushed commit")

// PushRequest describes a single-commit publish of a directory tree.
type PushRequest struct {
	Dir         string // tree to publish
	URL         string
	Branch      string
	Message     string
	AuthorName  string
	AuthorEmail string
	Auth        transport.AuthMethod
}

// PushTree commits the contents of req.Dir as a parentless commit and
// force-pushes it to req.Branch. The branch history is replaced, so the
// remote ends up holding exactly the tree that was pushed. The returned hash
// is confirmed by listing the remote references after the push.
func (c *Client) PushTree(ctx context.Context, req PushRequest) (string, error) {
	worktree, err := os.MkdirTemp(c.workspaceDir, "publish-*")
	if err != nil {
		return "", fmt.Errorf("create publish worktree: %w", err)
	}
	defer func() { _ = os.RemoveAll(worktree) }()

	branchRef := plumbing.NewBranchReferenceName(req.Branch)
	repo, err := git.PlainInitWithOptions(worktree, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: branchRef},
	})
	if err != nil {
		return "", fmt.Errorf("init publish repository: %w", err)
	}
	if err := copyTree(req.Dir, worktree); err != nil {
		return "", fmt.Errorf("stage tree: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("open worktree: %w", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("add tree: %w", err)
	}
	hash, err := wt.Commit(req.Message, &git.CommitOptions{
		Author: &object.Signature{Name: req.AuthorName, Email: req.AuthorEmail, When: time.Now()},
	})
	if err != nil {
		return "", fmt.Errorf("commit tree: %w", err)
	}

	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{req.URL}}); err != nil {
		return "", fmt.Errorf("create remote: %w", err)
	}
	spec := gitconfig.RefSpec(fmt.Sprintf("+%s:%s", branchRef, branchRef))
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{spec},
		Auth:       req.Auth,
		Force:      true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return "", classifyRemoteError("push", req.URL, err)
	}

	if err := confirmRemoteRef(ctx, repo, branchRef, hash, req.Auth); err != nil {
		return "", err
	}
	slog.Info("Pushed site", logfields.URL(req.URL), logfields.Branch(req.Branch), slog.String("commit", hash.String()[:8]))
	return hash.String(), nil
}

func confirmRemoteRef(ctx context.Context, repo *git.Repository, ref plumbing.ReferenceName, want plumbing.Hash, auth transport.AuthMethod) error {
	remote, err := repo.Remote("origin")
	if err != nil {
		return fmt.Errorf("open remote: %w", err)
	}
	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: auth})
	if err != nil {
		return classifyRemoteError("list", remote.Config().URLs[0], err)
	}
	for _, r := range refs {
		if r.Name() == ref {
			if r.Hash() == want {
				return nil
			}
			return fmt.Errorf("%w: %s is at %s, pushed %s", ErrPushNotConfirmed, ref.Short(), r.Hash(), want)
		}
	}
	return fmt.Errorf("%w: %s missing on remote", ErrPushNotConfirmed, ref.Short())
}

// copyTree copies regular files from src into dst, preserving layout.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			if rel == ".git" {
				return filepath.SkipDir
			}
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(p, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) // #nosec G304 -- walking the artifact tree
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	// #nosec G302 -- published site content
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
