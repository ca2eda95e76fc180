// Package misc provides program identity helpers used for logging,
// temporary file naming and version reporting.
package misc

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
)

const defaultAppName = "cssg"

var appName = sync.OnceValue(func() string {
	exe, err := os.Executable()
	if err != nil {
		return defaultAppName
	}
	name := strings.TrimSuffix(filepath.Base(exe), ".exe")
	if name == "" || name == "." {
		return defaultAppName
	}
	return name
})

// GetAppName returns base name of the running executable.
func GetAppName() string {
	return appName()
}

// GetVersion returns module version recorded in build info or "development"
// for local builds.
func GetVersion() string {
	if bi, ok := debug.ReadBuildInfo(); ok {
		if v := bi.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return "development"
}

// GetGitHash returns abbreviated VCS revision recorded in build info.
func GetGitHash() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return "unknown"
}
