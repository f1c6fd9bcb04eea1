// Package version carries build metadata injected with -ldflags:
//
//	go build -ldflags "-X maika/internal/version.Version=1.2.0 \
//	    -X maika/internal/version.BuildDate=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/discord
package version

import (
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
)

const (
	AppName        = "Maika"
	AppDescription = "A multipurpose Discord bot."
)

var (
	Version   = "dev"
	BuildDate = ""
	GoVersion = runtime.Version()
)

// Dependency is a module the binary was built with.
type Dependency struct {
	Path    string
	Version string
}

// Dependencies lists the direct and indirect modules compiled into the
// binary, sorted by path. It is empty when build info is unavailable.
func Dependencies() []Dependency {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	out := make([]Dependency, 0, len(info.Deps))
	for _, d := range info.Deps {
		if d.Replace != nil {
			d = d.Replace
		}
		out = append(out, Dependency{Path: d.Path, Version: d.Version})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// ModuleVersion returns the version of the dependency whose path ends with
// suffix, or "unknown".
func ModuleVersion(suffix string) string {
	for _, d := range Dependencies() {
		if strings.HasSuffix(d.Path, suffix) {
			return d.Version
		}
	}
	return "unknown"
}

// Short names the last path element of each dependency.
func Short(deps []Dependency) []string {
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		name := d.Path
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		out = append(out, name)
	}
	return out
}
