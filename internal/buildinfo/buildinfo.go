// Package buildinfo holds build metadata injected with -ldflags, e.g.
//
//	-X github.com/garyellow/triangulator-go/internal/buildinfo.Version=v1.2.0
package buildinfo

var (
	// Version is the release tag.
	Version = ""
	// Commit is the git commit SHA.
	Commit = ""
	// BuildDate is the RFC3339 build timestamp.
	BuildDate = ""
)

// Release returns Version, falling back to Commit and then "dev".
func Release() string {
	switch {
	case Version != "":
		return Version
	case Commit != "":
		return Commit
	default:
		return "dev"
	}
}
