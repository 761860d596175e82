// Package services defines shared utilities consumed by the pipeline, the
// action executor, and the provider integrations.
//
// Key responsibilities:
//   - Context helpers that stamp project IDs, stage and action names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures with errors.Is (HTTP status mapping, journal outcomes).
package services
