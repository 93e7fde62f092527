// Package app assembles the livepage service: configuration, telemetry,
// the page registry and the HTTP server, run under bootstrap.App.
package app
