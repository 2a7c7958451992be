// Package logging wraps log/slog with the attribute helpers, field-name
// constants, and handler setup shared across the daemon and CLI. Console
// output is a compact key=value line format; JSON output is available for
// log shipping. Loggers are passed explicitly; nothing here is a global.
package logging
