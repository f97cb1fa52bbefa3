// Package workspace manages scratch directories for pipeline runs, supporting
// both ephemeral (timestamped) and persistent (fixed-path) modes.
//
// Ephemeral mode creates a fresh directory per run (e.g.
// sitepipe-20251214-122336-123456) and removes it afterwards. Persistent mode
// reuses a fixed directory across runs, which watch mode uses to keep the
// source checkout in a predictable place.
package workspace
