// Package watch turns file changes, a schedule and push webhooks into
// pipeline runs. Triggers go through a single-worker Queue that coalesces
// bursts, so runs are queued and never interleave.
package watch
