package native

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/byte4ever/remotedep/remote"
)

// ErrNoAuthMethod is returned when neither an agent nor
// an identity file offers credentials.
var ErrNoAuthMethod = errors.New("no ssh authentication method available")

// Dialer opens in-process SSH connections.
type Dialer struct {
	// AgentSocket is the ssh-agent socket path. Empty
	// reads SSH_AUTH_SOCK.
	AgentSocket string

	// NetDialer establishes the TCP connection.
	NetDialer net.Dialer
}

// NewDialer returns a Dialer using SSH_AUTH_SOCK.
func NewDialer() *Dialer {
	return &Dialer{}
}

// Dial connects and authenticates to target.
func (d *Dialer) Dial(
	ctx context.Context,
	target remote.Target,
) (remote.Session, error) {
	const errCtx = "dialing with native ssh"

	cfg, closer, err := d.ClientConfig(target)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %w: %w", errCtx, remote.ErrConnection, err,
		)
	}

	defer closer()

	nd := d.NetDialer
	if target.Options.ConnectTimeout > 0 {
		nd.Timeout = target.Options.ConnectTimeout
	}

	conn, err := nd.DialContext(ctx, "tcp", target.Addr())
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %w: %w", errCtx, remote.ErrConnection, err,
		)
	}

	c, chans, reqs, err := handshake(ctx, conn, target, cfg)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %w: %w", errCtx, remote.ErrConnection, err,
		)
	}

	_ = conn.SetDeadline(time.Time{}) //nolint:errcheck // clear handshake bound

	slog.Debug("ssh connection established", "target", target.String())

	return &session{client: ssh.NewClient(c, chans, reqs)}, nil
}

// handshake runs the SSH handshake on conn. It is bounded
// by the ctx deadline, by ConnectTimeout, and aborted when
// ctx is cancelled. conn is closed on failure.
func handshake(
	ctx context.Context,
	conn net.Conn,
	target remote.Target,
	cfg *ssh.ClientConfig,
) (ssh.Conn, <-chan ssh.NewChannel, <-chan *ssh.Request, error) {
	deadline, ok := ctx.Deadline()
	if to := target.Options.ConnectTimeout; to > 0 {
		if bound := time.Now().Add(to); !ok || bound.Before(deadline) {
			deadline, ok = bound, true
		}
	}

	if ok {
		_ = conn.SetDeadline(deadline) //nolint:errcheck // best effort handshake bound
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close() //nolint:errcheck // unblocks the handshake
	})

	c, chans, reqs, err := ssh.NewClientConn(conn, target.Addr(), cfg)

	if !stop() {
		if err == nil {
			_ = c.Close() //nolint:errcheck // ctx won the race
		}

		return nil, nil, nil, fmt.Errorf("ssh handshake: %w", ctx.Err())
	}

	if err != nil {
		_ = conn.Close() //nolint:errcheck // handshake already failed

		return nil, nil, nil, fmt.Errorf("ssh handshake: %w", err)
	}

	return c, chans, reqs, nil
}

// ClientConfig builds the ssh client configuration for
// target. The returned func releases the agent
// connection, if any, once the handshake is over.
func (d *Dialer) ClientConfig(
	target remote.Target,
) (*ssh.ClientConfig, func(), error) {
	const errCtx = "building ssh client config"

	hostKey, err := HostKeyCallback(target.Options)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	auths, closer, err := d.authMethods(target.Options)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return &ssh.ClientConfig{
		User:            target.Login(),
		Auth:            auths,
		HostKeyCallback: hostKey,
		Timeout:         target.Options.ConnectTimeout,
	}, closer, nil
}

// HostKeyCallback returns ssh.InsecureIgnoreHostKey when
// host-key checking is disabled, and a known_hosts based
// verifier otherwise.
func HostKeyCallback(opts remote.Options) (ssh.HostKeyCallback, error) {
	const errCtx = "loading known hosts"

	if !opts.StrictHostKeyChecking {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // opt-in via options
	}

	khf := opts.KnownHostsFile()
	if khf == "" || khf == remote.NullKnownHostsFile {
		return nil, fmt.Errorf(
			"%s: strict host key checking needs a known hosts file",
			errCtx,
		)
	}

	cb, err := knownhosts.New(khf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return cb, nil
}

func (d *Dialer) authMethods(
	opts remote.Options,
) ([]ssh.AuthMethod, func(), error) {
	const errCtx = "collecting auth methods"

	var (
		methods []ssh.AuthMethod
		closer  = func() {}
	)

	sock := d.AgentSocket
	if sock == "" {
		sock = os.Getenv("SSH_AUTH_SOCK")
	}

	if sock != "" {
		conn, err := net.Dial("unix", sock)
		if err != nil {
			slog.Warn("ssh agent unavailable", "socket", sock, "error", err)
		} else {
			methods = append(
				methods,
				ssh.PublicKeysCallback(agent.NewClient(conn).Signers),
			)
			closer = func() { _ = conn.Close() } //nolint:errcheck // agent socket
		}
	}

	var signers []ssh.Signer

	for _, path := range opts.IdentityFiles {
		pem, err := os.ReadFile(path) //nolint:gosec // paths from configuration
		if err != nil {
			closer()

			return nil, nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			closer()

			return nil, nil, fmt.Errorf(
				"%s: parse %s: %w", errCtx, path, err,
			)
		}

		signers = append(signers, signer)
	}

	if len(signers) > 0 {
		methods = append(methods, ssh.PublicKeys(signers...))
	}

	if len(methods) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", errCtx, ErrNoAuthMethod)
	}

	return methods, closer, nil
}

type session struct {
	client *ssh.Client
}

// Run opens one ssh session channel per command. The
// channel is closed when ctx is done.
func (s *session) Run(
	ctx context.Context,
	cmd string,
) (remote.Result, error) {
	const errCtx = "running over native ssh"

	ss, err := s.client.NewSession()
	if err != nil {
		return remote.Result{}, fmt.Errorf(
			"%s: %w: %w", errCtx, remote.ErrConnection, err,
		)
	}

	defer func() { _ = ss.Close() }() //nolint:errcheck // EOF after Run is expected

	var stdout, stderr bytes.Buffer

	ss.Stdout = &stdout
	ss.Stderr = &stderr

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			_ = ss.Close() //nolint:errcheck // unblocks Run
		case <-done:
		}
	}()

	err = ss.Run(cmd)

	res := remote.Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err == nil {
		return res, nil
	}

	if ctx.Err() != nil {
		return remote.Result{}, fmt.Errorf(
			"%s: %w: %w", errCtx, remote.ErrConnection, ctx.Err(),
		)
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitStatus()

		return res, nil
	}

	return remote.Result{}, fmt.Errorf(
		"%s: %w: %w", errCtx, remote.ErrConnection, err,
	)
}

// Close closes the underlying client connection.
func (s *session) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("closing ssh client: %w", err)
	}

	return nil
}
