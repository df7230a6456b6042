// Package logging provides structured logging utilities for coopcal.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Text or JSON slog handlers selected by configuration
//   - Consistent attribute naming across the codebase
//   - Token masking so credentials never reach the logs
//
// # Usage Patterns
//
// Build the process logger once at startup:
//
//	logger, err := logging.New(os.Stderr, "info", "text")
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "calendar.fetch")
//	logger.Info("fetched events",
//	    logging.Calendar(calendarID),
//	    logging.Status(logging.StatusSuccess))
//
// # Security Considerations
//
// Access and refresh tokens are never logged directly; use SanitizeToken.
package logging
