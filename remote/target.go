package remote

import (
	"net"
	"strconv"
	"time"
)

const (
	// DefaultUser is the SSH login used when Target.User
	// is empty.
	DefaultUser = "root"

	// DefaultPort is the SSH port used when Target.Port
	// is zero.
	DefaultPort = 22

	// NullKnownHostsFile discards learned host keys.
	NullKnownHostsFile = "/dev/null"
)

// Options holds the transport settings passed to every
// remote session.
type Options struct {
	// StrictHostKeyChecking enables host identity
	// verification against UserKnownHostsFile.
	StrictHostKeyChecking bool `json:"strict_host_key_checking"`

	// UserKnownHostsFile is the known_hosts file used
	// for verification.
	UserKnownHostsFile string `json:"user_known_hosts_file"`

	// ConnectTimeout bounds connection establishment.
	// Zero leaves it to the transport.
	ConnectTimeout time.Duration `json:"connect_timeout"`

	// IdentityFiles lists private keys offered for
	// authentication.
	IdentityFiles []string `json:"identity_files,omitempty"`
}

// DefaultOptions returns host-key checking disabled and
// the known-hosts file suppressed.
func DefaultOptions() Options {
	return Options{
		StrictHostKeyChecking: false,
		UserKnownHostsFile:    NullKnownHostsFile,
	}
}

// KnownHostsFile returns UserKnownHostsFile. When it is
// empty and host-key checking is off, NullKnownHostsFile
// is returned so learned keys are never recorded.
func (o Options) KnownHostsFile() string {
	if o.UserKnownHostsFile == "" && !o.StrictHostKeyChecking {
		return NullKnownHostsFile
	}

	return o.UserKnownHostsFile
}

// Target identifies a remote host and how to reach it.
type Target struct {
	Host    string  `json:"host"`
	User    string  `json:"user"`
	Port    int     `json:"port"`
	Options Options `json:"options"`
}

// NewTarget returns a Target for host with the default
// user, port and options.
func NewTarget(host string) Target {
	return Target{
		Host:    host,
		User:    DefaultUser,
		Port:    DefaultPort,
		Options: DefaultOptions(),
	}
}

// Login returns the user, falling back to DefaultUser.
func (t Target) Login() string {
	if t.User == "" {
		return DefaultUser
	}

	return t.User
}

// EffectivePort returns the port, falling back to
// DefaultPort.
func (t Target) EffectivePort() int {
	if t.Port <= 0 {
		return DefaultPort
	}

	return t.Port
}

// Addr returns host:port, bracketing IPv6 literals.
func (t Target) Addr() string {
	return net.JoinHostPort(
		t.Host, strconv.Itoa(t.EffectivePort()),
	)
}

// String returns user@host:port for logging.
func (t Target) String() string {
	return t.Login() + "@" + t.Addr()
}
