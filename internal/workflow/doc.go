// Package workflow is the request-scoped entry point shared by the CLI and the
// HTTP API. Every mutating call takes the per-project lock, reloads the record
// from disk and then delegates to the generation pipeline or the action
// executor, so concurrent callers never race on the stored record.
package workflow
