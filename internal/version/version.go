package version

import (
	"runtime/debug"
)

// Version information for greaper
var (
	// Version is the current semantic version
	Version = "0.1.0"

	// GitCommit is set during build time (use -ldflags)
	GitCommit = "unknown"
)

// Info returns version information as a string
func Info() string {
	return Version
}

// FullInfo returns version, commit and Go toolchain
func FullInfo() string {
	return "greaper " + Version + " (commit: " + commit() + ", " + goVersion() + ")"
}

// commit prefers the -ldflags value, then the VCS stamp embedded by go build
func commit() string {
	if GitCommit != "unknown" {
		return GitCommit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return GitCommit
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 12 {
			return s.Value[:12]
		}
	}
	return GitCommit
}

func goVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "go unknown"
	}
	return info.GoVersion
}
