// Package buildinfo carries the version stamped in by the linker, e.g.
//
//	go build -ldflags "-X kestrel/internal/buildinfo.Version=v0.3.0"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns the most specific identifier available: the version if it
// was stamped, else the commit, else "dev". The kernel prints it in its
// boot banner.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	return "dev"
}

// String is the long form printed by -version.
func String() string {
	return fmt.Sprintf("kestrel %s (commit %s, built %s)", Version, Commit, Date)
}
