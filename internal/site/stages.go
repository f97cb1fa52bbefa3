package site

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.home.luguber.info/inful/sitepipe/internal/content"
	"git.home.luguber.info/inful/sitepipe/internal/manifest"
	"git.home.luguber.info/inful/sitepipe/internal/render"
)

// StageName identifies a build stage.
type StageName string

const (
	StageDiscover    StageName = "discover"
	StageParse       StageName = "parse"
	StageLayouts     StageName = "layouts"
	StageRenderItems StageName = "render_items"
	StageRenderIndex StageName = "render_index"
	StageRenderTags  StageName = "render_tags"
	StageFeeds       StageName = "feeds"
	StageCopyAssets  StageName = "copy_assets"
	StageManifest    StageName = "manifest"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *buildState) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// buildState carries mutable state across stages of a single build.
type buildState struct {
	b        *Builder
	root     string // source root
	output   string // promotion target
	stageDir string // output is written here until promotion
	report   *Report

	tree      *content.Tree
	items     []*content.Item // parsed successfully, sorted by path
	indexPage *content.Item   // root index.md, when present
	registry  *render.Registry
	index     Index
	tags      map[string]*TagGroup
	written   map[string]string // output path -> producer (source path or kind)
	manifest  *manifest.Manifest
}

type namedStage struct {
	name StageName
	fn   Stage
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal error. Per-item problems never surface here; stages record
// them on the report themselves.
func runStages(ctx context.Context, bs *buildState, stages []namedStage) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.name, ctx.Err())
			bs.report.recordStage(st.name, 0, se)
			return se
		default:
		}

		t0 := time.Now()
		err := st.fn(ctx, bs)
		dur := time.Since(t0)

		if err != nil {
			var se *StageError
			if !errors.As(err, &se) {
				se = newFatalStageError(st.name, err)
			}
			bs.report.recordStage(st.name, dur, se)
			return se
		}
		bs.report.recordStage(st.name, dur, nil)
	}
	return nil
}
