// Package taskrun drives a task through the up-to-date protocol used by
// uptodate.Checker: predicates see the values saved by the previous
// successful run, register value savers on the task, and the savers' output
// is persisted only when the task action succeeds.
package taskrun
