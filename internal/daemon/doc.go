// Package daemon hosts the long-running litany service: it owns the process
// store, the event bus, the pipeline orchestrator, and the HTTP API, and it
// enforces single-instance execution through a lock file.
package daemon
