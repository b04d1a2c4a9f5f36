// Package logging wraps log/slog with the attribute helpers, standardized
// field names, and context plumbing used across satchel.
package logging
