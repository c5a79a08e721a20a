package version

import (
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/MrSnakeDoc/bookmarkhub/internal/version.Version=v0.1.0".
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)

// Info describes the running binary.
type Info struct {
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
}

// Get returns the linked-in build info. Fields left empty by the linker
// are filled from the VCS stamp the go tool embeds.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, BuildDate: BuildDate, GoVersion: runtime.Version()}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info = fill(info, bi)
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	return info
}

func fill(info Info, bi *debug.BuildInfo) Info {
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = shortRevision(s.Value)
			}
		case "vcs.time":
			if info.BuildDate == "" {
				info.BuildDate = s.Value
			}
		}
	}
	return info
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
