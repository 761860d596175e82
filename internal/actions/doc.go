// Package actions holds the post-processing action registry and executor.
//
// An action transforms every working image of a project (the flat set of png
// files in the project root). Before each run the executor copies the working
// set into the project's stash directory, then verifies the declared
// predecessor marker, transforms each file lacking the action's own marker,
// and flags the action as completed on the project record.
package actions
