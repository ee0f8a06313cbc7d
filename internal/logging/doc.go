// Package logging constructs the application's slog loggers and provides
// standardized attribute helpers and context-derived fields shared by the
// pipeline, scheduler, and CLI.
package logging
