package openssh

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/byte4ever/remotedep/exec"
	"github.com/byte4ever/remotedep/remote"
)

// sshErrorStatus is the exit status ssh uses for its own
// failures (connection, authentication).
const sshErrorStatus = 255

// runFunc matches exec.Run.
type runFunc func(
	ctx context.Context,
	name string,
	arg ...string,
) (exec.Output, error)

// Dialer opens sessions through the ssh binary.
type Dialer struct {
	// Binary is the ssh client path (default "ssh").
	Binary string

	run runFunc
}

// NewDialer returns a Dialer using binary, or "ssh" when
// binary is empty.
func NewDialer(binary string) *Dialer {
	if binary == "" {
		binary = "ssh"
	}

	return &Dialer{Binary: binary, run: exec.Run}
}

// Dial checks that the target accepts a login by running
// "true" and returns a session bound to the target.
func (d *Dialer) Dial(
	ctx context.Context,
	target remote.Target,
) (remote.Session, error) {
	const errCtx = "dialing with openssh"

	sess := &session{dialer: d, target: target}

	res, err := sess.Run(ctx, "true")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if res.ExitCode != 0 {
		return nil, fmt.Errorf(
			"%s: %w: probe exited with status %d",
			errCtx, remote.ErrConnection, res.ExitCode,
		)
	}

	slog.Debug("ssh session ready", "target", target.String())

	return sess, nil
}

type session struct {
	dialer *Dialer
	target remote.Target
}

// Run executes cmd on the target. Exit status 255 is
// reported as a connection failure.
func (s *session) Run(
	ctx context.Context,
	cmd string,
) (remote.Result, error) {
	const errCtx = "running over openssh"

	run := s.dialer.run
	if run == nil {
		run = exec.Run
	}

	out, err := run(ctx, s.dialer.binary(), Args(s.target, cmd)...)
	if err != nil {
		return remote.Result{}, fmt.Errorf(
			"%s: %w: %w", errCtx, remote.ErrConnection, err,
		)
	}

	if out.ExitCode == sshErrorStatus {
		return remote.Result{}, fmt.Errorf(
			"%s: %w: %s",
			errCtx,
			remote.ErrConnection,
			strings.TrimSpace(out.Stderr),
		)
	}

	return remote.Result{
		Stdout:   out.Stdout,
		Stderr:   out.Stderr,
		ExitCode: out.ExitCode,
	}, nil
}

// Close is a no-op: each command owns its connection.
func (s *session) Close() error {
	return nil
}

func (d *Dialer) binary() string {
	if d.Binary == "" {
		return "ssh"
	}

	return d.Binary
}

// Args builds the ssh argument list running cmd on
// target.
func Args(target remote.Target, cmd string) []string {
	opts := target.Options

	args := []string{
		"-o", "BatchMode=yes",
		"-o", "StrictHostKeyChecking=" + yesNo(opts.StrictHostKeyChecking),
	}

	if khf := opts.KnownHostsFile(); khf != "" {
		args = append(args, "-o", "UserKnownHostsFile="+khf)
	}

	if opts.ConnectTimeout > 0 {
		secs := int(opts.ConnectTimeout.Seconds())
		if secs < 1 {
			secs = 1
		}

		args = append(
			args, "-o", "ConnectTimeout="+strconv.Itoa(secs),
		)
	}

	for _, id := range opts.IdentityFiles {
		args = append(args, "-i", id)
	}

	args = append(
		args,
		"-p", strconv.Itoa(target.EffectivePort()),
		"-l", target.Login(),
		"--",
		target.Host,
		cmd,
	)

	return args
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}

	return "no"
}
