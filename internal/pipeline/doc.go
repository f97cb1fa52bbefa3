// Package pipeline runs the build-then-publish sequence as a small state
// machine:
//
//	idle -> building -> {build_failed | build_succeeded} -> publishing -> {publish_failed | published}
//
// A Runner executes one run at a time. Every transition is logged, written to
// the run ledger, counted in metrics and emitted as an event. The publisher is
// only reached from build_succeeded.
package pipeline
