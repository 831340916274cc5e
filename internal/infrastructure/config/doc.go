// Package config provides 12-factor configuration for the ctxrun command.
//
// Configuration is loaded from environment variables with defaults;
// command-line flags override individual values.
//
// Configuration Sections:
//   - Runtime: script timeout, call stack limit and console capture
//   - Resolve: file index and alias settings for the sandbox resolver
//   - Logging: log level and output format
//   - Metrics: whether to print a metrics summary after a run
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	ctx, cancel := context.WithTimeout(ctx, cfg.Runtime.Timeout)
//
// Environment Variables:
//   - CTXRUN_TIMEOUT, CTXRUN_MAX_CALL_STACK, CTXRUN_CONSOLE
//   - CTXRUN_INDEX, CTXRUN_SKIP_DIRS, CTXRUN_ALIASES
//   - LOG_LEVEL, LOG_DEV
//   - CTXRUN_METRICS
package config
