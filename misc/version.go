// Package misc keeps program identity, set at link time.
package misc

import (
	"runtime/debug"
)

// Set with -ldflags "-X pdfrst/misc.version=... -X pdfrst/misc.gitHash=..."
var (
	appName = "pdfrst"
	version = "dev"
	gitHash = ""
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	if version != "dev" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return version
}

// GetGitHash returns commit program was built from, falls back to VCS
// information recorded by go build.
func GetGitHash() string {
	if gitHash != "" {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
