package remote

import (
	"errors"
	"fmt"
)

// ErrRemoteExecution is the umbrella for every failure
// that leaves the remote state unknown.
var ErrRemoteExecution = errors.New("remote execution failed")

// ErrConnection reports that the remote host could not be
// reached or authenticated, or the connection dropped.
var ErrConnection = fmt.Errorf(
	"%w: connection", ErrRemoteExecution,
)

// ErrRemoteCommand reports a remote command that exited
// with an unexpected status or produced unparseable
// output.
var ErrRemoteCommand = fmt.Errorf(
	"%w: remote command", ErrRemoteExecution,
)

// CommandError describes a failed remote command.
type CommandError struct {
	Cmd      string
	ExitCode int
	Stderr   string
	Reason   string
}

// Error implements error.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf(
		"%q exited with status %d", e.Cmd, e.ExitCode,
	)

	if e.Reason != "" {
		msg = fmt.Sprintf("%q: %s", e.Cmd, e.Reason)
	}

	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}

	return msg
}

// Unwrap lets errors.Is match ErrRemoteCommand and
// ErrRemoteExecution.
func (e *CommandError) Unwrap() error {
	return ErrRemoteCommand
}
