// Package main is the ctxrun command.
//
// ctxrun loads a CommonJS entry module inside a fresh sandbox and prints
// its exports as JSON. Modules required by the entry run in the same
// sandbox; .txt, .yaml, .yml and .toml files are loaded as data.
//
// Usage:
//
//	# Require ./app with two globals
//	ctxrun run ./app --globals globals.yaml
//
//	# Resolve from a file index with an alias
//	ctxrun run ./app --index --alias '@lib/**=src/lib'
//
//	# Stop runaway scripts and print counters
//	ctxrun run ./app --timeout 2s --metrics
//
// Configuration:
//   - Environment variables (see internal/infrastructure/config)
//   - CLI flags override environment variables
package main
