// Package metrics records pipeline run, build stage and publish metrics.
//
// Components take a Recorder and default to NoopRecorder, so metrics stay
// optional without nil checks at call sites. PrometheusRecorder is used when
// the metrics endpoint is enabled in watch mode; HTTPHandler serves it.
package metrics
