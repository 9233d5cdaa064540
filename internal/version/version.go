// Package version holds the build version of objcmeta.
package version

import "runtime"

// Name is the tool name reported in output metadata.
const Name = "objcmeta"

// These variables can be overridden at build time using ldflags:
// go build -ldflags "-X objcmeta/internal/version.Version=1.0.0 -X objcmeta/internal/version.Commit=abc123"
var (
	Version = "0.4.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// Info returns the version with an abbreviated commit when one is known.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns complete version information
func Full() string {
	return Name + " version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate + "\n" +
		"Platform: " + runtime.GOOS + "/" + runtime.GOARCH + " (" + runtime.Version() + ")"
}
