// Package remotetest provides an in-memory remote host for tests. It
// understands the existence test and md5sum-style checksum commands issued
// by package remote.
package remotetest

import (
	"context"
	"crypto/md5" //nolint:gosec // mirrors the remote md5sum utility
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/byte4ever/remotedep/remote"
)

// Host is a fake remote host holding files in memory.
// It is safe for concurrent use.
type Host struct {
	mu sync.Mutex

	files map[string]string

	// DialErr, when set, is returned by Dial wrapped in
	// remote.ErrConnection.
	DialErr error

	// FailOn makes any command containing the key fail
	// with the mapped exit code.
	FailOn map[string]int

	// DropOn makes any command containing the key fail
	// as a dropped connection.
	DropOn string

	// Output overrides stdout of checksum commands.
	Output *string

	dials    int
	closes   int
	commands []string
}

// NewHost returns a Host serving files (path to content).
func NewHost(files map[string]string) *Host {
	fs := make(map[string]string, len(files))
	for k, v := range files {
		fs[k] = v
	}

	return &Host{files: fs, FailOn: map[string]int{}}
}

// Write creates or replaces a file.
func (h *Host) Write(path string, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.files[path] = content
}

// Remove deletes a file.
func (h *Host) Remove(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.files, path)
}

// Dials returns how many sessions were opened.
func (h *Host) Dials() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.dials
}

// Closes returns how many sessions were closed.
func (h *Host) Closes() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.closes
}

// Commands returns every command run so far, in order.
func (h *Host) Commands() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]string(nil), h.commands...)
}

// Dial implements remote.Dialer.
func (h *Host) Dial(
	_ context.Context,
	_ remote.Target,
) (remote.Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.DialErr != nil {
		return nil, fmt.Errorf(
			"dialing fake host: %w: %w",
			remote.ErrConnection, h.DialErr,
		)
	}

	h.dials++

	return &session{host: h}, nil
}

type session struct {
	host *Host
}

func (s *session) Close() error {
	s.host.mu.Lock()
	defer s.host.mu.Unlock()

	s.host.closes++

	return nil
}

func (s *session) Run(
	_ context.Context,
	cmd string,
) (remote.Result, error) {
	h := s.host

	h.mu.Lock()
	defer h.mu.Unlock()

	h.commands = append(h.commands, cmd)

	if h.DropOn != "" && strings.Contains(cmd, h.DropOn) {
		return remote.Result{}, fmt.Errorf(
			"fake session: %w: connection reset",
			remote.ErrConnection,
		)
	}

	for key, code := range h.FailOn {
		if strings.Contains(cmd, key) {
			return remote.Result{
				ExitCode: code,
				Stderr:   "injected failure",
			}, nil
		}
	}

	verb, arg, _ := strings.Cut(cmd, " ")

	switch verb {
	case "test":
		quoted := strings.TrimPrefix(arg, "-e ")
		if _, ok := h.lookup(quoted); ok {
			return remote.Result{}, nil
		}

		return remote.Result{ExitCode: 1}, nil

	case "gmd5sum", "md5sum":
		path, ok := h.lookup(arg)
		if !ok {
			return remote.Result{
				ExitCode: 1,
				Stderr:   arg + ": No such file or directory",
			}, nil
		}

		if h.Output != nil {
			return remote.Result{Stdout: *h.Output}, nil
		}

		return remote.Result{
			Stdout: Sum(h.files[path]) + "  " + path + "\n",
		}, nil

	default:
		return remote.Result{
			ExitCode: 127,
			Stderr:   verb + ": command not found",
		}, nil
	}
}

// lookup resolves a shell-quoted path to a stored file.
func (h *Host) lookup(quoted string) (string, bool) {
	for path := range h.files {
		if remote.ShellQuote(path) == quoted {
			return path, true
		}
	}

	return "", false
}

// Sum returns the md5 hex digest of content, as md5sum
// prints it.
func Sum(content string) string {
	sum := md5.Sum([]byte(content)) //nolint:gosec // see import

	return hex.EncodeToString(sum[:])
}
