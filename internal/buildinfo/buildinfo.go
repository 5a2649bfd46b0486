// Package buildinfo carries release metadata stamped at link time:
//
//	go build -ldflags "-X github.com/divehq/dive/internal/buildinfo.Version=v0.3.0"
package buildinfo

var (
	Version = ""
	Commit  = ""
	Date    = ""
)

// Stamped reports whether any release metadata was injected.
func Stamped() bool {
	return Version != "" || Commit != "" || Date != ""
}
