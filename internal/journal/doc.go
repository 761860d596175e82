// Package journal keeps an append-only SQLite history of pipeline stage and
// action runs per project. The project record stays the source of truth for
// state; the journal answers "what ran, when, and how did it end".
package journal
