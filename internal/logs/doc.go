// Package logs reads the JSON log file written by internal/logging.
//
// Tail returns the last N records or everything after a byte offset, and can
// wait for new records in follow mode. A project filter keeps only records
// whose project_id matches, which is how `audiosketch logs --project` shows a
// single project's activity.
package logs
