package remote

import "context"

// Pattern: Strategy -- swap the SSH transport without
// changing the fingerprint logic.

// Result is the outcome of a remote command that ran to
// completion.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Session runs commands on one remote host. A non-zero
// exit status is reported in Result; Run returns an error
// only when the command could not be carried out, and
// that error wraps ErrConnection.
type Session interface {
	Run(ctx context.Context, cmd string) (Result, error)
	Close() error
}

// Dialer opens sessions. Implementations wrap failures in
// ErrConnection.
type Dialer interface {
	Dial(ctx context.Context, target Target) (Session, error)
}

// DialerFunc adapts a plain function to the Dialer
// interface.
type DialerFunc func(
	ctx context.Context,
	target Target,
) (Session, error)

// Dial delegates to the wrapped function.
func (f DialerFunc) Dial(
	ctx context.Context,
	target Target,
) (Session, error) {
	return f(ctx, target)
}
