package site

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitepipe/internal/config"
	derrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/manifest"
	"git.home.luguber.info/inful/sitepipe/internal/render"
)

// summaryLength caps the plain-text summary of listing entries, in runes.
const summaryLength = 200

// Artifact is the result of a successful build.
type Artifact struct {
	Dir      string // promoted output directory
	Items    int    // content items rendered
	Skipped  int    // content files excluded: malformed front matter, read errors, duplicate index sources
	Indexed  int    // items listed in the site index
	Tags     int
	Assets   int
	Index    []string // indexed source paths in listing order
	Manifest *manifest.Manifest
	Report   *Report
}

// Digest identifies the artifact content.
func (a *Artifact) Digest() string {
	if a.Manifest == nil {
		return ""
	}
	return a.Manifest.Hash()
}

// Builder renders a source tree into the configured output directory.
type Builder struct {
	cfg      *config.Config
	markdown *render.Markdown
	output   string
}

// Option customizes a Builder.
type Option func(*Builder)

// WithOutputDir overrides the configured output directory.
func WithOutputDir(dir string) Option {
	return func(b *Builder) { b.output = dir }
}

// NewBuilder returns a Builder for cfg.
func NewBuilder(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:      cfg,
		markdown: render.NewMarkdown(cfg.Markdown),
		output:   cfg.Output.Directory,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// OutputDir returns the directory a successful build is promoted to.
func (b *Builder) OutputDir() string { return b.output }

func (b *Builder) site() render.Site {
	return render.Site{
		Title:       b.cfg.Site.Title,
		Description: b.cfg.Site.Description,
		BaseURL:     b.cfg.Site.BaseURL,
		Author:      b.cfg.Site.Author,
		Language:    b.cfg.Site.Language,
	}
}

// Build renders sourceRoot. The output directory is replaced only when the
// build succeeds; the source tree is never written to. A missing source root
// fails with ErrSourceNotFound and a tree without a single valid content item
// fails with ErrEmptyBuild. Per-item problems are recorded in the report.
func (b *Builder) Build(ctx context.Context, sourceRoot string) (*Artifact, error) {
	root, err := checkSourceRoot(sourceRoot)
	if err != nil {
		return nil, err
	}
	out, err := filepath.Abs(b.output)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "invalid output directory").
			Fatal().WithContext("path", b.output).Build()
	}
	if contains(out, root) {
		return nil, derrors.ConfigError("output directory must not contain the source root").
			WithContext("source", root).WithContext("output", out).Build()
	}

	stage, err := beginStaging(out)
	if err != nil {
		return nil, derrors.WrapError(fmt.Errorf("%w: %w", ErrOutput, err), derrors.CategoryFileSystem, "failed to prepare staging directory").
			Fatal().WithContext("path", out).Build()
	}

	bs := &buildState{
		b:        b,
		root:     root,
		output:   out,
		stageDir: stage,
		report:   newReport(),
		written:  make(map[string]string),
	}

	slog.Info("Build started", logfields.Path(root), "output", out)
	err = runStages(ctx, bs, defaultStages())
	if err == nil {
		if perr := finalizeStaging(stage, out); perr != nil {
			err = newFatalStageError("promote", fmt.Errorf("%w: %w", ErrOutput, perr))
		}
	}
	bs.report.finish(err)
	if err != nil {
		abortStaging(stage)
		slog.Error("Build failed", logfields.Path(root), logfields.Error(err))
		return nil, classifyBuildError(err, root)
	}

	art := &Artifact{
		Dir:      out,
		Items:    bs.report.Items,
		Skipped:  bs.report.Skipped,
		Indexed:  bs.report.Indexed,
		Tags:     bs.report.Tags,
		Assets:   bs.report.Assets,
		Index:    bs.index.Paths(),
		Manifest: bs.manifest,
		Report:   bs.report,
	}
	slog.Info("Build finished",
		logfields.Items(art.Items),
		logfields.Skipped(art.Skipped),
		"indexed", art.Indexed,
		"assets", art.Assets,
		logfields.Digest(art.Digest()),
		logfields.DurationMS(float64(bs.report.Duration().Milliseconds())))
	return art, nil
}

func checkSourceRoot(sourceRoot string) (string, error) {
	notFound := func(cause error) error {
		return derrors.WrapError(fmt.Errorf("%w: %w", ErrSourceNotFound, cause), derrors.CategoryBuild, "source root not found").
			Fatal().UserAction().WithContext("path", sourceRoot).Build()
	}

	root, err := filepath.Abs(sourceRoot)
	if err != nil {
		return "", notFound(err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", notFound(err)
	}
	if !info.IsDir() {
		return "", notFound(fmt.Errorf("%s is not a directory", root))
	}
	f, err := os.Open(root) // #nosec G304 -- operator supplied source root
	if err != nil {
		return "", notFound(err)
	}
	_, err = f.Readdirnames(1)
	_ = f.Close()
	if err != nil && !errors.Is(err, io.EOF) {
		return "", notFound(err)
	}
	return root, nil
}

// contains reports whether child is dir or lies beneath it.
func contains(dir, child string) bool {
	rel, err := filepath.Rel(dir, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func classifyBuildError(err error, root string) error {
	var se *StageError
	stage := ""
	if errors.As(err, &se) {
		stage = string(se.Stage)
	}
	switch {
	case errors.Is(err, ErrEmptyBuild):
		return derrors.WrapError(err, derrors.CategoryBuild, "no valid content items").
			Fatal().UserAction().WithContext("path", root).Build()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return derrors.WrapError(err, derrors.CategoryRuntime, "build canceled").
			WithContext("stage", stage).Build()
	case errors.Is(err, ErrOutput):
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to write output").
			Fatal().WithContext("stage", stage).Build()
	default:
		return derrors.WrapError(err, derrors.CategoryBuild, "build failed").
			Fatal().WithContext("stage", stage).WithContext("path", root).Build()
	}
}
