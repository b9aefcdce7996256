// Package pipeline wires the stage handlers onto the event bus and owns
// process execution: a FIFO lane per process id guarantees at most one
// running task per process, and a bounded worker pool caps concurrency
// across processes. StartProcess and SelectTitle are the only external
// write entry points; everything else is read-only store access.
package pipeline
