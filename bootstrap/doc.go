// Package bootstrap runs a service's lifecycle: typed config defaults and
// validation, ordered component start and reverse-order stop, lifecycle
// hooks, and graceful shutdown on SIGINT or SIGTERM.
package bootstrap
