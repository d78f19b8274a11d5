// Package statestore persists the values task runs save for the next
// up-to-date check, one JSON document per state file, keyed by task name.
// Writes go through renameio: a temporary file in the same directory is
// synced and renamed over the destination.
package statestore
