package site

import (
	"errors"
	"fmt"
	"time"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// IssueCode enumerates machine-parseable per-item issue identifiers.
type IssueCode string

const (
	IssueFrontMatter    IssueCode = "FRONT_MATTER"
	IssueInvalidDate    IssueCode = "INVALID_DATE"
	IssueUnknownLayout  IssueCode = "UNKNOWN_LAYOUT"
	IssueOutputConflict IssueCode = "OUTPUT_CONFLICT"
	IssueReadFailure    IssueCode = "READ_FAILURE"
)

// Issue is a non-fatal problem tied to one source file.
type Issue struct {
	Code    IssueCode `json:"code"`
	Path    string    `json:"path"`
	Message string    `json:"message"`
}

// Report captures what a build did. It is never written into the artifact.
type Report struct {
	Start          time.Time                    `json:"start"`
	End            time.Time                    `json:"end"`
	Outcome        BuildOutcome                 `json:"outcome"`
	Discovered     int                          `json:"discovered"`
	Items          int                          `json:"items"`
	Skipped        int                          `json:"skipped"`
	Indexed        int                          `json:"indexed"`
	Tags           int                          `json:"tags"`
	Assets         int                          `json:"assets"`
	Layouts        map[string]int               `json:"layouts"`      // resolved layout -> pages rendered
	Fingerprints   map[string]string            `json:"fingerprints"` // source path -> mdfp fingerprint
	Issues         []Issue                      `json:"issues,omitempty"`
	StageDurations map[StageName]time.Duration  `json:"stage_durations"`
	StageErrors    map[StageName]StageErrorKind `json:"stage_errors,omitempty"`
	Err            string                       `json:"error,omitempty"`
}

func newReport() *Report {
	return &Report{
		Start:          time.Now(),
		Layouts:        make(map[string]int),
		Fingerprints:   make(map[string]string),
		StageDurations: make(map[StageName]time.Duration),
		StageErrors:    make(map[StageName]StageErrorKind),
	}
}

func (r *Report) addIssue(code IssueCode, path string, err error) {
	r.Issues = append(r.Issues, Issue{Code: code, Path: path, Message: err.Error()})
}

func (r *Report) recordStage(name StageName, dur time.Duration, se *StageError) {
	r.StageDurations[name] = dur
	if se != nil {
		r.StageErrors[name] = se.Kind
	}
}

// finish stamps the end time and derives the outcome from err and issues.
func (r *Report) finish(err error) {
	r.End = time.Now()
	switch {
	case err != nil:
		r.Err = err.Error()
		var se *StageError
		if errors.As(err, &se) && se.Kind == StageErrorCanceled {
			r.Outcome = OutcomeCanceled
			return
		}
		r.Outcome = OutcomeFailed
	case len(r.Issues) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

// Duration is the wall time of the build.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("items=%d skipped=%d indexed=%d tags=%d assets=%d issues=%d duration=%s outcome=%s",
		r.Items, r.Skipped, r.Indexed, r.Tags, r.Assets, len(r.Issues), r.Duration().Truncate(time.Millisecond), r.Outcome)
}
