// Package version reports the prolink build version.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/prolink/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/prolink/internal/version.Commit=abc1234"
//
// Otherwise they are filled from the module and VCS build info.
var (
	Version = ""
	Commit  = ""
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if ok {
		Version, Commit = fromBuildInfo(info, Version, Commit)
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fromBuildInfo fills whichever of version and commit are still empty
func fromBuildInfo(info *debug.BuildInfo, version, commit string) (string, string) {
	// "go install module@v1.2.3" records the tag as the main module version
	if version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}

	if commit == "" {
		var revision, modified string
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				revision = s.Value
			case "vcs.modified":
				modified = s.Value
			}
		}
		if len(revision) > 7 {
			revision = revision[:7]
		}
		if revision != "" && modified == "true" {
			revision += "-dirty"
		}
		commit = revision
	}

	return version, commit
}

// Full returns the version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}
