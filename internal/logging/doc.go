// Package logging provides structured logging utilities for fsen-admin.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package. CLI output is
// rendered with tint on stderr so that stdout stays reserved for report data and
// progress lines.
//
// # Key Features
//
//   - Structured logging with slog and colored terminal output
//   - PII sanitization (email anonymization, token masking)
//   - Consistent attribute naming across the codebase
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "fsapi.groups")
//	logger.Info("fetched groups", logging.Status(logging.StatusSuccess))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("sent mail", logging.Group(id), logging.Recipients(row["addresses"]))
//
// # Security Considerations
//
//   - Recipient addresses are hashed to prevent PII leakage while allowing correlation
//   - API tokens are never logged directly
package logging
