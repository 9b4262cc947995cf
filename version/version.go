package version

import (
	"runtime/debug"
)

var appVer string = ""

// String returns the version reported by the tsplay executables. It attempts
// to retrieve the version from build information (for go install), falls back
// to the ldflags-injected value, or returns "#UNAVAILABLE" if neither is set.
//
// ldflags: -X github.com/adnsv/tsplay/version.appVer=v1.2.3
func String() string {
	v, ok := debug.ReadBuildInfo()
	if ok && v.Main.Version != "" && v.Main.Version != "(devel)" {
		// installed with go install
		return v.Main.Version
	} else if appVer != "" {
		// built with ld-flags
		return appVer
	} else {
		return "#UNAVAILABLE"
	}
}
