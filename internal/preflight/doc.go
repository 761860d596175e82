// Package preflight provides readiness checks for the provider API, the
// external image tools and the filesystem paths audiosketch depends on.
//
// These checks run in two contexts:
//   - The "audiosketch status" command renders every result as a table.
//   - "audiosketch serve" runs RunAll at startup and logs failures as
//     warnings so a misconfigured host is visible before the first request.
//
// Checks for optional features are gated by their config toggle.
package preflight
