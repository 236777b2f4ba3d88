// SPDX-License-Identifier: MIT
//
// Package build carries version metadata injected at compile time via
// -ldflags. Development builds fall back to "dev" values instead of failing.
package build

// Populated by -ldflags, for example:
//
//	go build -ldflags "-X auralight/internal/build.version=0.2.0"
var (
	name    = "auralight"
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info is the resolved build metadata.
type Info struct {
	Name    string
	Version string
	Commit  string
	Date    string
}

// Get returns the build metadata for this binary.
func Get() Info {
	return Info{
		Name:    name,
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}
