// Package version carries the tool's own semantic version, read once at
// startup and embedded into every lockfile as toolVersion (spec.md §4.3).
package version

import "fmt"

// These are injected at build time via -ldflags, matching the teacher's
// pkg/version convention.
var (
	Version   = "0.1.0"
	GitCommit = ""
	BuildDate = ""
)

// String returns a formatted version string for --version output.
func String() string {
	if GitCommit == "" && BuildDate == "" {
		return fmt.Sprintf("docs-cache version %s", Version)
	}
	return fmt.Sprintf("docs-cache version %s (commit: %s, built: %s)", Version, GitCommit, BuildDate)
}

// ToolVersion returns the bare semver string stored in lockfiles.
func ToolVersion() string {
	return Version
}
