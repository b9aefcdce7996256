// Package logging builds the slog loggers used across litany. It offers a
// human-oriented console handler and a JSON handler, standardized field
// constants, and helpers that derive structured fields from request context.
package logging
