// Package version carries build metadata set through ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/sitepipe/internal/version.Version=v1.0.0"
package version

import "fmt"

// Version contains the application version.
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by --version.
func String() string {
	return fmt.Sprintf("sitepipe %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
