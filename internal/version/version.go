// Package version carries build metadata injected via -ldflags.
package version

var (
	Toolname  = "cloud-image-fetcher"
	Version   = "0.0.0-dev"
	BuildDate = "unknown"
	CommitSHA = "unknown"
)
