// Package resolvers provides ctxrequire.Resolver implementations.
//
// Files probes the file system the way the loader does for relative
// requests. Index answers from a snapshot of a directory tree taken once
// with fastwalk. Alias rewrites requests that match doublestar patterns and
// hands the result to another resolver.
package resolvers
