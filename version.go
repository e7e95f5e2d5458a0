package bier

import "fmt"

// Version of the bier library
const Version = "0.4.0"

// Build information (set by ldflags during build)
var (
	GitCommit string
	BuildDate string
)

// VersionInfo returns formatted version information
func VersionInfo() string {
	if GitCommit == "" {
		return fmt.Sprintf("bier v%s", Version)
	}
	return fmt.Sprintf("bier v%s (commit: %s, built: %s)", Version, GitCommit, BuildDate)
}
