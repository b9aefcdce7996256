// Package generation wraps the OpenAI-compatible HTTP backends that produce
// text, speech, and images for the pipeline. All clients share the same
// retry discipline: exponential backoff on timeouts, 429, and 5xx responses,
// honoring Retry-After when the server provides one.
package generation
