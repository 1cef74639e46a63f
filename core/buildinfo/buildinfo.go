// Package buildinfo carries version metadata stamped at link time:
//
//	go build -ldflags "-X 'github.com/roskarniz/regbot/core/buildinfo.Version=v0.3.0' \
//	  -X 'github.com/roskarniz/regbot/core/buildinfo.Commit=$(git rev-parse --short HEAD)' \
//	  -X 'github.com/roskarniz/regbot/core/buildinfo.Date=$(date -u +%FT%TZ)'" ./cmd/regbot
package buildinfo

import "fmt"

var (
	// Version reports the semantic version or tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)

// String renders the build metadata on one line for --version output.
func String() string {
	if Date == "" {
		return fmt.Sprintf("regbot %s (%s)", Version, Commit)
	}
	return fmt.Sprintf("regbot %s (%s, built %s)", Version, Commit, Date)
}
