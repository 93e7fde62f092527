// Package component defines the lifecycle interface for long-running parts of
// livepage (the HTTP server, the page registry's heartbeat loop) and an
// ordered registry that starts them in order and stops them in reverse.
package component
