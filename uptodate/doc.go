// Package uptodate provides Checker, an up-to-date predicate for task
// runners. A Checker fingerprints a list of remote files over SSH and
// compares the result with the value a task runner saved after the previous
// successful run, stored under StateKey.
//
// On every Check the Checker registers a ValueSaver on the task. The runner
// calls it after the task succeeds and persists the returned map, which is
// handed back as Values on the next run. Missing previous state always means
// "not up to date".
//
// A Checker holds only its configuration and the last fingerprint; each
// computation dials a new session and closes it, so no live connection
// outlives a call.
package uptodate
