// SPDX-License-Identifier: MIT

// Package version holds the tool's version identity. The version-bump
// gate in scripts/check-version-bump.sh keys on this file: every release
// must change it.
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is the current application version.
	// Populated by the build system (ldflags), with this fallback for
	// plain `go build`.
	Version = "v1.0.0"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// Full returns the version with commit and build date, resolving unset
// build metadata from the binary's embedded build info.
func Full() string {
	commit, date := Commit, Date
	if commit == "unknown" || date == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					if commit == "unknown" && len(s.Value) >= 7 {
						commit = s.Value[:7]
					}
				case "vcs.time":
					if date == "unknown" {
						date = s.Value
					}
				}
			}
		}
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, commit, date)
}
