// Package version reports the idlepress build.
package version

import "fmt"

// These variables are set at build time using ldflags, e.g.
// -X github.com/connorhough/idlepress/internal/version.Version=v0.2.0
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// String returns a formatted version string including version, git commit, and build date
func String() string {
	return fmt.Sprintf("%s (commit: %s, date: %s)", Version, GitCommit, BuildDate)
}
