// Package project persists audiosketch projects.
//
// Each project lives in its own directory under the configured projects root:
//
//	<projects_dir>/<id>/cache.yml      the project record
//	<projects_dir>/<id>/*.png          the working image set
//	<projects_dir>/<id>/stash/         backups taken before each action
//	<projects_dir>/<id>/.lock          cross-process lock file
//
// Records are rewritten in full after every mutation using a temp file and a
// rename, so a reader never observes a partially written cache.yml. Locker
// serializes mutating work on a single project across goroutines and
// processes.
package project
