// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Output goes to stderr by default so that command output on stdout stays
// machine readable.
//
// Sandbox console output can be replayed into a logger with Console, which
// maps console.log/info to Info, console.warn to Warn and console.error to
// Error.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("sandbox created", zap.Uint64("id", id))
//	logger.Console(ctx.Console())
package logging
