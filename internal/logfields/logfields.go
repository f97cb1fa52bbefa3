package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyTrigger    = "trigger"
	KeyState      = "state"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyLayout     = "layout"
	KeyTarget     = "target"
	KeyDigest     = "digest"
	KeyItems      = "items"
	KeySkipped    = "skipped"
	KeyURL        = "url"
	KeyBranch     = "branch"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Trigger(t string) slog.Attr      { return slog.String(KeyTrigger, t) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Layout(l string) slog.Attr       { return slog.String(KeyLayout, l) }
func Target(t string) slog.Attr       { return slog.String(KeyTarget, t) }
func Digest(d string) slog.Attr       { return slog.String(KeyDigest, d) }
func Items(n int) slog.Attr           { return slog.Int(KeyItems, n) }
func Skipped(n int) slog.Attr         { return slog.Int(KeySkipped, n) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
