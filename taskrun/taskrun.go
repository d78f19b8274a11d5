package taskrun

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/byte4ever/remotedep/uptodate"
)

// Predicate decides whether a task can be skipped.
type Predicate interface {
	Check(
		ctx context.Context,
		task uptodate.Task,
		values uptodate.Values,
	) (bool, error)
}

// PredicateFunc adapts a plain function to Predicate.
type PredicateFunc func(
	ctx context.Context,
	task uptodate.Task,
	values uptodate.Values,
) (bool, error)

// Check delegates to the wrapped function.
func (f PredicateFunc) Check(
	ctx context.Context,
	task uptodate.Task,
	values uptodate.Values,
) (bool, error) {
	return f(ctx, task, values)
}

// Store loads and persists saved values per task.
type Store interface {
	Values(task string) map[string]any
	Set(task string, values map[string]any)
	Save() error
}

// Task is a named action gated by up-to-date predicates.
// It implements uptodate.Task.
type Task struct {
	Name     string
	Action   func(ctx context.Context) error
	UpToDate []Predicate

	savers []uptodate.ValueSaver
}

// AddValueSaver registers a saver called after a
// successful run.
func (tk *Task) AddValueSaver(saver uptodate.ValueSaver) {
	tk.savers = append(tk.savers, saver)
}

// Status is the outcome of Run.
type Status int

const (
	// Skipped means every predicate reported up to date.
	Skipped Status = iota
	// Executed means the action ran and its values were
	// saved.
	Executed
	// Checked means the task was stale but had no
	// action; values were saved without running anything.
	Checked
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case Skipped:
		return "skipped"
	case Executed:
		return "executed"
	case Checked:
		return "checked"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Run evaluates the task predicates against the values
// saved for it. When all report up to date, and at least
// one predicate exists, the task is skipped. Otherwise the
// action runs and, on success, the registered savers'
// values are persisted. A predicate or action failure
// aborts the task and saves nothing.
func Run(ctx context.Context, store Store, tk *Task) (Status, error) {
	const errCtx = "running task"

	tk.savers = nil
	values := uptodate.Values(store.Values(tk.Name))

	upToDate := len(tk.UpToDate) > 0

	for _, pr := range tk.UpToDate {
		ok, err := pr.Check(ctx, tk, values)
		if err != nil {
			return Skipped, fmt.Errorf(
				"%s: %s: up-to-date check: %w", errCtx, tk.Name, err,
			)
		}

		upToDate = upToDate && ok
	}

	if upToDate {
		slog.Info("task is up to date", "task", tk.Name)

		return Skipped, nil
	}

	status := Checked

	if tk.Action != nil {
		slog.Info("running task", "task", tk.Name)

		if err := tk.Action(ctx); err != nil {
			return Skipped, fmt.Errorf(
				"%s: %s: %w", errCtx, tk.Name, err,
			)
		}

		status = Executed
	}

	if err := persist(store, tk); err != nil {
		return status, fmt.Errorf("%s: %s: %w", errCtx, tk.Name, err)
	}

	return status, nil
}

func persist(store Store, tk *Task) error {
	const errCtx = "persisting task values"

	merged := make(map[string]any)

	for _, sv := range tk.savers {
		for k, v := range sv() {
			merged[k] = v
		}
	}

	store.Set(tk.Name, merged)

	if err := store.Save(); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}
