// Package version tells which build of the engine is running.
package version

import (
	"runtime/debug"
	"strings"
)

// Version can be set at build time, e.g.
// go build -ldflags "-X github.com/dalps/rhythm/version.Version=$(git describe --dirty)"
var Version string

// Hash is the short VCS revision the binary was built from, with a "-dirty"
// suffix if the working tree had local changes; empty if unknown.
var Hash = func() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	return revision(info.Settings)
}()

// VersionOrHash is Version if it was set at build time, Hash otherwise.
var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	return Hash
}()

// Describe returns a one-line description of the build of the named binary.
func Describe(binary string) string {
	v := VersionOrHash
	if v == "" {
		v = "(devel)"
	}
	return strings.Join([]string{binary, v}, " ")
}

func revision(settings []debug.BuildSetting) string {
	var rev string
	dirty := false
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return ""
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if dirty {
		return rev + "-dirty"
	}
	return rev
}
