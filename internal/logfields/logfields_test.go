package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RunID", KeyRunID, "r1", RunID("r1")},
		{"Trigger", KeyTrigger, "push", Trigger("push")},
		{"State", KeyState, "building", State("building")},
		{"Stage", KeyStage, "render_pages", Stage("render_pages")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"File", KeyFile, "posts/a.md", File("posts/a.md")},
		{"Layout", KeyLayout, "post", Layout("post")},
		{"Target", KeyTarget, "git", Target("git")},
		{"Digest", KeyDigest, "abc", Digest("abc")},
		{"URL", KeyURL, "https://example.org", URL("https://example.org")},
		{"Branch", KeyBranch, "main", Branch("main")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if tc.attr.Value.String() != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %s", tc.name, tc.attrVal, tc.attr.Value.String())
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if a := Items(3); a.Key != KeyItems || a.Value.Int64() != 3 {
		t.Fatalf("unexpected items attr: %v", a)
	}
	if a := Skipped(1); a.Key != KeySkipped || a.Value.Int64() != 1 {
		t.Fatalf("unexpected skipped attr: %v", a)
	}
	if a := DurationMS(1.5); a.Value.Float64() != 1.5 {
		t.Fatalf("unexpected duration attr: %v", a)
	}
}

func TestErrorHelper(t *testing.T) {
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("nil error should be empty, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Value.String() != "boom" {
		t.Fatalf("unexpected error value %q", a.Value.String())
	}
}
