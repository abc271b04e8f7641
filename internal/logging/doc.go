// Package logging builds the shared slog logger and provides standardized
// attribute helpers so every component logs the same field names.
package logging
