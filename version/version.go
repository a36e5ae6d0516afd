// Package version holds build information set at link time, e.g.
//
//	go build -ldflags "-X github.com/cbosdo/libvirt/version.Version=v0.3.0"
package version

var (
	// Version holds the value for the binary version. It is a compile time variable.
	Version = "N/A"
	// BuildTime is a compile time variable for the binary build time.
	BuildTime = "N/A"
)
