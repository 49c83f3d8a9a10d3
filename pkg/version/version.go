// Package version provides build and version information for gha-optimizer
package version

import (
	"fmt"
	"runtime"
)

// Build information. These values are set via ldflags during build.
var (
	// Version is the semantic version of the build. It must match the
	// "**Version:**" marker of the bundled optimization patterns document.
	Version = "0.1.0"

	// CommitHash is the git commit hash of the build
	CommitHash = "unknown"

	// BuildDate is the date when the binary was built
	BuildDate = "unknown"

	// GoVersion is the Go version used to build the binary
	GoVersion = runtime.Version()
)

// Info represents version and build information
type Info struct {
	Version    string `json:"version" yaml:"version"`
	CommitHash string `json:"commit_hash" yaml:"commit_hash"`
	BuildDate  string `json:"build_date" yaml:"build_date"`
	GoVersion  string `json:"go_version" yaml:"go_version"`
	Platform   string `json:"platform" yaml:"platform"`
}

// Get returns the version information
func Get() Info {
	return Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildDate:  BuildDate,
		GoVersion:  GoVersion,
		Platform:   GetPlatform(),
	}
}

// String returns a formatted version string
func (i Info) String() string {
	return fmt.Sprintf("gha-optimizer %s (commit: %s, built: %s, go: %s, platform: %s)",
		i.Version, i.CommitHash, i.BuildDate, i.GoVersion, i.Platform)
}

// Short returns a short version string
func (i Info) Short() string {
	return fmt.Sprintf("gha-optimizer %s", i.Version)
}

// GetVersion returns just the version string
func GetVersion() string {
	return Version
}

// GetPlatform returns the platform information
func GetPlatform() string {
	return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
}

// UserAgent is sent on every outbound HTTP request.
func UserAgent() string {
	return "gha-optimizer/" + Version
}

// IsDevBuild returns true if this is a development build
func IsDevBuild() bool {
	return CommitHash == "unknown"
}
