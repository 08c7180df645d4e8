// Package version reports what build of jabcount is running.
package version

import (
	"runtime"
	"runtime/debug"
	"strings"
)

// Set through -ldflags "-X" by release builds.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

type Info struct {
	Version   string
	Revision  string
	BuildTime string
	GoVersion string
}

// Resolve returns the version string shown by --version.
func Resolve() string {
	return Current().Version
}

// Current combines the linker-provided values with the VCS stamps Go
// embeds in the binary.
func Current() Info {
	bi, _ := debug.ReadBuildInfo()
	return resolve(Version, Commit, Date, bi)
}

func resolve(version, commit, date string, bi *debug.BuildInfo) Info {
	info := Info{
		Version:   version,
		Revision:  commit,
		BuildTime: date,
		GoVersion: runtime.Version(),
	}
	if bi == nil {
		return info
	}

	if bi.GoVersion != "" {
		info.GoVersion = bi.GoVersion
	}
	if (info.Version == "" || info.Version == "dev") && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = strings.TrimPrefix(bi.Main.Version, "v")
	}

	var dirty bool
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Revision == "" {
				info.Revision = shortRevision(s.Value)
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if dirty && info.Revision != "" && !strings.HasSuffix(info.Revision, "-dirty") {
		info.Revision += "-dirty"
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
