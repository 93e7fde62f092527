// Package version reports livepage build information.
//
// Version, commit and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/livepage/version.Version=1.0.0" ./cmd/livepage
package version
