package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	oe "os/exec"
	"strings"
)

// Output holds the result of a finished local command.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ErrStart is returned by Run when the command could
// not be started at all (binary missing, bad dir...).
var ErrStart = errors.New("starting command")

// Ex executes the named command in the given directory and
// returns combined stdout+stderr output. Pass empty dir to
// use the current working directory.
func Ex(
	ctx context.Context,
	dir string,
	name string,
	arg ...string,
) (string, error) {
	const errCtx = "executing command"

	slog.Info(
		"executing",
		"cmd", name,
		"args", strings.Join(arg, " "),
	)

	cmd := oe.CommandContext(ctx, name, arg...)
	if dir != "" {
		cmd.Dir = dir
	}

	by, err := cmd.CombinedOutput()

	slog.Debug("output", "result", string(by))

	if err != nil {
		return string(by), fmt.Errorf(
			"%s: %s %s: %w",
			errCtx, name, strings.Join(arg, " "), err,
		)
	}

	return string(by), nil
}

// Run executes the named command and captures stdout and
// stderr separately. A command that starts and exits
// non-zero is not an error: its status is reported in
// Output.ExitCode. Errors are reserved for commands that
// could not be started or were interrupted.
func Run(
	ctx context.Context,
	name string,
	arg ...string,
) (Output, error) {
	const errCtx = "running command"

	slog.Debug(
		"running",
		"cmd", name,
		"args", strings.Join(arg, " "),
	)

	var stdout, stderr bytes.Buffer

	cmd := oe.CommandContext(ctx, name, arg...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	out := Output{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err == nil {
		return out, nil
	}

	if ctx.Err() != nil {
		return out, fmt.Errorf(
			"%s: %s: %w", errCtx, name, ctx.Err(),
		)
	}

	var exitErr *oe.ExitError
	if errors.As(err, &exitErr) && exitErr.Exited() {
		out.ExitCode = exitErr.ExitCode()

		return out, nil
	}

	return out, fmt.Errorf(
		"%s: %s: %w: %w", errCtx, name, ErrStart, err,
	)
}
