package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitepipe"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration   *prom.HistogramVec
	stageResults    *prom.CounterVec
	buildDuration   prom.Histogram
	buildOutcome    *prom.CounterVec
	publishDuration *prom.HistogramVec
	runStates       *prom.CounterVec
	triggers        *prom.CounterVec
	lastPublished   prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total site build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		publishDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_duration_seconds",
			Help:      "Duration of artifact transfers by target and result",
			Buckets:   prom.DefBuckets,
		}, []string{"target", "result"}),
		runStates: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_states_total",
			Help:      "Pipeline run state transitions",
		}, []string{"state"}),
		triggers: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "triggers_total",
			Help:      "Run triggers by source; coalesced triggers were folded into a pending run",
		}, []string{"source", "coalesced"}),
		lastPublished: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_published_timestamp_seconds",
			Help:      "Unix time of the last successful publish",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.buildDuration, pr.buildOutcome,
		pr.publishDuration, pr.runStates, pr.triggers, pr.lastPublished)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObservePublishDuration(target string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.publishDuration.WithLabelValues(target, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunState(state string) {
	if p == nil {
		return
	}
	p.runStates.WithLabelValues(state).Inc()
}

func (p *PrometheusRecorder) IncTrigger(source string, coalesced bool) {
	if p == nil {
		return
	}
	c := "false"
	if coalesced {
		c = "true"
	}
	p.triggers.WithLabelValues(source, c).Inc()
}

func (p *PrometheusRecorder) SetLastPublished(t time.Time) {
	if p == nil {
		return
	}
	p.lastPublished.Set(float64(t.Unix()))
}
