// Package config loads, normalizes, and validates the TOML configuration
// used by the clipdigest daemon and CLI. Defaults are applied first, then
// overridden by the config file; paths are expanded and required
// directories created before any component starts.
package config
