package uptodate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/byte4ever/remotedep/digester"
	"github.com/byte4ever/remotedep/remote"
)

// StateKey is the saved-values key holding the previous
// fingerprint.
const StateKey = "modified_state"

// Values are the values a task runner persisted for a
// task after its previous successful run.
type Values map[string]any

// ValueSaver returns the values to persist once the task
// has run successfully.
type ValueSaver func() map[string]any

// Task is the part of a task runner's task handle the
// Checker needs.
type Task interface {
	AddValueSaver(saver ValueSaver)
}

// Config describes what a Checker watches.
type Config struct {
	// Target is the remote host.
	Target remote.Target `json:"target"`

	// Files are remote paths, hashed in this order.
	Files []string `json:"files"`

	// ChecksumCommand is the remote checksum command
	// template, see remote.DefaultChecksumCommand.
	ChecksumCommand string `json:"checksum_command,omitempty"`
}

// Checker decides whether a set of remote files changed
// since the last recorded run. Not safe for concurrent
// use.
type Checker struct {
	cfg     Config
	dg      *digester.Digester
	state   string
	checked bool
}

// New builds a Checker and computes the initial
// fingerprint. It fails when the remote host cannot be
// fingerprinted.
func New(
	ctx context.Context,
	cfg Config,
	dialer remote.Dialer,
) (*Checker, error) {
	const errCtx = "creating remote files checker"

	ch := &Checker{
		cfg: Config{
			Target:          cfg.Target,
			Files:           append([]string(nil), cfg.Files...),
			ChecksumCommand: cfg.ChecksumCommand,
		},
		dg: &digester.Digester{
			Dialer:          dialer,
			ChecksumCommand: cfg.ChecksumCommand,
		},
	}

	if _, err := ch.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return ch, nil
}

// Config returns a copy of the checker configuration.
func (ch *Checker) Config() Config {
	cfg := ch.cfg
	cfg.Files = append([]string(nil), ch.cfg.Files...)

	return cfg
}

// State returns the last computed fingerprint.
func (ch *Checker) State() string {
	return ch.state
}

// Checked reports whether Check ran at least once.
func (ch *Checker) Checked() bool {
	return ch.checked
}

// Refresh recomputes the fingerprint. On error the
// previous fingerprint is kept.
func (ch *Checker) Refresh(ctx context.Context) (string, error) {
	const errCtx = "refreshing remote fingerprint"

	st, err := ch.dg.CalculateDigest(ctx, ch.cfg.Target, ch.cfg.Files)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	ch.state = st

	return st, nil
}

// Check recomputes the fingerprint, registers a value
// saver on task and reports whether the fingerprint
// matches the one saved in values. A remote failure is
// returned before anything is registered.
func (ch *Checker) Check(
	ctx context.Context,
	task Task,
	values Values,
) (bool, error) {
	const errCtx = "checking remote files"

	if _, err := ch.Refresh(ctx); err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	ch.checked = true

	task.AddValueSaver(ch.save)

	prev, found := previousState(values)
	if !found {
		slog.Info(
			"remote dependency has no saved state, not up to date",
			"target", ch.cfg.Target.String(),
			"state", ch.state,
		)

		return false, nil
	}

	if prev == ch.state {
		slog.Info(
			"remote dependency is up to date",
			"target", ch.cfg.Target.String(),
			"state", ch.state,
		)

		return true, nil
	}

	slog.Info(
		"remote dependency is not up to date, rerun task",
		"target", ch.cfg.Target.String(),
		"previous", prev,
		"state", ch.state,
	)

	return false, nil
}

func (ch *Checker) save() map[string]any {
	return map[string]any{StateKey: ch.state}
}

// previousState extracts the saved fingerprint. A nil or
// non-string value counts as absent.
func previousState(values Values) (string, bool) {
	raw, ok := values[StateKey]
	if !ok || raw == nil {
		return "", false
	}

	prev, ok := raw.(string)
	if !ok {
		slog.Warn(
			"ignoring saved state of unexpected type",
			"type", fmt.Sprintf("%T", raw),
		)

		return "", false
	}

	return prev, true
}
