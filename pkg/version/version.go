package version

import (
	"fmt"
	"runtime"
)

// Build information. Populated at build-time via -ldflags
var (
	// Version is the semantic version (e.g., "v1.0.0")
	Version = "dev"

	// GitCommit is the git commit hash
	GitCommit = "unknown"

	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// GetVersion returns a one-line version string, e.g.
// vpnportal 0.1.0 (abc1234 2026-08-28T10:00:00Z)
func GetVersion(name string) string {
	return fmt.Sprintf("%s %s (%s %s)", name, Version, GitCommit, BuildTime)
}

// GetVersionInfo returns detailed version information
func GetVersionInfo() string {
	return fmt.Sprintf(`Version:    %s
Git commit: %s
Built:      %s
Go version: %s`,
		Version,
		GitCommit,
		BuildTime,
		runtime.Version(),
	)
}
