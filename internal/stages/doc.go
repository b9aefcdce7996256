// Package stages implements the pipeline stage handlers. Each handler
// consumes exactly one event type, calls a generation backend, persists its
// output on the process record, and publishes the event for the next stage.
// Failures are absorbed locally: the handler marks the process failed,
// publishes the terminal failure event, and the chain stops for that process.
package stages
