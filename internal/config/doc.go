// Package config loads, normalizes, and validates audiosketch configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY and GPU. The Config type centralizes every knob the CLI and
// HTTP server need so that project storage, provider credentials, and the
// external image tool binaries are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
