// Package config loads, normalizes, and validates litany's TOML
// configuration. Configuration is resolved from an explicit path, then
// ~/.config/litany/config.toml, then ./litany.toml, falling back to
// repository defaults when no file exists.
package config
