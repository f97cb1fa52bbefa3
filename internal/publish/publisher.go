package publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitepipe/internal/config"
	derrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/git"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/site"
)

// Result describes an accepted deployment.
type Result struct {
	Target   string
	Location string
	Revision string
	Digest   string // bundle digest
	Files    int
	Size     int64
	Duration time.Duration
}

// Publisher transfers artifacts to one target.
type Publisher struct {
	target  Target
	workDir string
}

// New returns a Publisher for target. Bundles are staged under workDir
// (the system temp dir when empty).
func New(target Target, workDir string) *Publisher {
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Publisher{target: target, workDir: workDir}
}

// NewFromConfig builds the target selected in cfg.
func NewFromConfig(cfg config.PublishConfig, workDir string) (*Publisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var target Target
	switch cfg.Target {
	case config.TargetDirectory:
		target = NewDirectoryTarget(cfg.Directory.Root, cfg.Directory.Keep)
	case config.TargetGit:
		target = NewGitTarget(cfg.Git, workDir)
	case config.TargetArchive:
		target = NewArchiveTarget(cfg.Archive.Path)
	default:
		return nil, derrors.ConfigError(fmt.Sprintf("unknown publish target %q", cfg.Target)).Build()
	}
	return New(target, workDir), nil
}

// TargetName returns the configured target's name.
func (p *Publisher) TargetName() string { return p.target.Name() }

// Publish validates the artifact, bundles it and hands it to the target.
// An empty or missing artifact fails with ErrEmptyArtifact before the target
// is touched. Any target failure is reported as ErrTransfer.
func (p *Publisher) Publish(ctx context.Context, art *site.Artifact) (*Result, error) {
	start := time.Now()
	if err := checkArtifact(art); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryPublish, "refusing to publish empty artifact").
			Fatal().WithContext("target", p.target.Name()).Build()
	}

	tmp, err := os.MkdirTemp(p.workDir, "bundle-*")
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create bundle directory").
			Fatal().WithContext("path", p.workDir).Build()
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	b, err := CreateBundle(art.Dir, filepath.Join(tmp, "site.tar.gz"))
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to bundle artifact").
			Fatal().WithContext("path", art.Dir).Build()
	}
	slog.Debug("Bundled artifact", logfields.Digest(b.Digest), "files", b.Files, "bytes", b.Size)

	receipt, err := p.target.Transfer(ctx, art, b)
	if err != nil {
		slog.Error("Transfer failed", logfields.Target(p.target.Name()), logfields.Error(err))
		return nil, classifyTransferError(p.target.Name(), err)
	}

	res := &Result{
		Target:   p.target.Name(),
		Location: receipt.Location,
		Revision: receipt.Revision,
		Digest:   b.Digest,
		Files:    b.Files,
		Size:     b.Size,
		Duration: time.Since(start),
	}
	slog.Info("Published artifact",
		logfields.Target(res.Target),
		slog.String("location", res.Location),
		slog.String("revision", res.Revision),
		logfields.Digest(res.Digest))
	return res, nil
}

// checkArtifact fails closed: the directory must exist and hold at least one
// regular file.
func checkArtifact(art *site.Artifact) error {
	if art == nil || art.Dir == "" {
		return fmt.Errorf("%w: no artifact", ErrEmptyArtifact)
	}
	found := errors.New("found")
	err := filepath.WalkDir(art.Dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			return found
		}
		return nil
	})
	switch {
	case errors.Is(err, found):
		return nil
	case err != nil:
		return fmt.Errorf("%w: %w", ErrEmptyArtifact, err)
	default:
		return fmt.Errorf("%w: %s has no files", ErrEmptyArtifact, art.Dir)
	}
}

func classifyTransferError(target string, err error) error {
	wrapped := fmt.Errorf("%w: %w", ErrTransfer, err)
	category := derrors.CategoryPublish
	var authErr *git.AuthError
	if errors.As(err, &authErr) {
		category = derrors.CategoryAuth
	}
	return derrors.WrapError(wrapped, category, "transfer to "+target+" failed").
		Fatal().WithContext("target", target).Build()
}
