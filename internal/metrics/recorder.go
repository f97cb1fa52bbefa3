package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for pipeline runs.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome string) // success|warning|failed|canceled
	ObservePublishDuration(target string, d time.Duration, success bool)
	IncRunState(state string)
	IncTrigger(source string, coalesced bool)
	SetLastPublished(t time.Time)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)         {}
func (NoopRecorder) IncStageResult(string, ResultLabel)                 {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)                 {}
func (NoopRecorder) IncBuildOutcome(string)                             {}
func (NoopRecorder) ObservePublishDuration(string, time.Duration, bool) {}
func (NoopRecorder) IncRunState(string)                                 {}
func (NoopRecorder) IncTrigger(string, bool)                            {}
func (NoopRecorder) SetLastPublished(time.Time)                         {}
