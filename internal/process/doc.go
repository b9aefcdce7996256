// Package process persists pipeline processes in SQLite. Each process keeps
// a lifecycle stage, a human-readable stage label, monotonic progress, and a
// payload row holding the request parameters and generated content.
package process
