// Package api exposes the workflow manager as a small JSON HTTP surface built
// on gin, plus Prometheus metrics at /metrics.
package api
