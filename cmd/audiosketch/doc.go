// Package main hosts the audiosketch CLI entrypoint and command graph.
//
// The Cobra-based command tree drives the workflow manager directly: creating
// and inspecting projects, running the generation pipeline for a narration,
// applying post-processing actions, reading run history, checking host
// readiness and serving the HTTP API. Configuration resolution and logger
// setup live in commandContext so subcommands only deal with presentation.
package main
