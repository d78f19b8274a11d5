package statestore

import (
	"errors"
	"fmt"
	"os"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/google/renameio/v2"
)

// document is the on-disk layout.
type document struct {
	Tasks map[string]map[string]any `json:"tasks"`
}

// Store holds saved values for every task of one state
// file. Not safe for concurrent use.
type Store struct {
	path  string
	tasks map[string]map[string]any
}

// Open loads the state file at path. A missing file
// yields an empty store.
func Open(path string) (*Store, error) {
	const errCtx = "opening state store"

	st := &Store{
		path:  path,
		tasks: make(map[string]map[string]any),
	}

	data, err := os.ReadFile(path) //nolint:gosec // path from configuration
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf(
			"%s: parse %s: %w", errCtx, path, err,
		)
	}

	for name, vals := range doc.Tasks {
		if vals != nil {
			st.tasks[name] = vals
		}
	}

	return st, nil
}

// Path returns the state file location.
func (st *Store) Path() string {
	return st.path
}

// Values returns a copy of the saved values of task. The
// result is never nil.
func (st *Store) Values(task string) map[string]any {
	out := make(map[string]any, len(st.tasks[task]))
	for k, v := range st.tasks[task] {
		out[k] = v
	}

	return out
}

// Set replaces the saved values of task.
func (st *Store) Set(task string, values map[string]any) {
	cp := make(map[string]any, len(values))
	for k, v := range values {
		cp[k] = v
	}

	st.tasks[task] = cp
}

// Forget drops the saved values of task.
func (st *Store) Forget(task string) {
	delete(st.tasks, task)
}

// Tasks returns the names of tasks with saved values,
// sorted.
func (st *Store) Tasks() []string {
	names := make([]string, 0, len(st.tasks))
	for name := range st.tasks {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Save writes the store atomically: readers see either
// the previous or the new document, never a partial one.
func (st *Store) Save() error {
	const errCtx = "saving state store"

	data, err := json.MarshalIndent(
		document{Tasks: st.tasks}, "", "  ",
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := renameio.WriteFile(
		st.path, append(data, '\n'), 0o600,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}
