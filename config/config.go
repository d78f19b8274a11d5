package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/byte4ever/remotedep/remote"
	"github.com/byte4ever/remotedep/remote/native"
	"github.com/byte4ever/remotedep/remote/openssh"
	"github.com/byte4ever/remotedep/uptodate"
)

// Transport names.
const (
	TransportOpenSSH = "openssh"
	TransportNative  = "native"
)

// DefaultStateFile is where saved values live when no
// state_file is configured.
const DefaultStateFile = ".remote_uptodate.json"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// SSH holds transport options.
type SSH struct {
	Binary                string   `yaml:"binary"`
	StrictHostKeyChecking bool     `yaml:"strict_host_key_checking"`
	UserKnownHostsFile    string   `yaml:"user_known_hosts_file"`
	ConnectTimeout        string   `yaml:"connect_timeout"`
	IdentityFiles         []string `yaml:"identity_files"`
}

// Config is the YAML configuration file layout.
type Config struct {
	Host            string   `yaml:"host"`
	User            string   `yaml:"user"`
	Port            int      `yaml:"port"`
	Transport       string   `yaml:"transport"`
	ChecksumCommand string   `yaml:"checksum_command"`
	Files           []string `yaml:"files"`
	Task            string   `yaml:"task"`
	StateFile       string   `yaml:"state_file"`
	SSH             SSH      `yaml:"ssh"`
}

// Default returns the configuration used when no file is
// given.
func Default() Config {
	opts := remote.DefaultOptions()

	return Config{
		User:            remote.DefaultUser,
		Port:            remote.DefaultPort,
		Transport:       TransportOpenSSH,
		ChecksumCommand: remote.DefaultChecksumCommand,
		Task:            "remote_files",
		StateFile:       DefaultStateFile,
		SSH: SSH{
			StrictHostKeyChecking: opts.StrictHostKeyChecking,
			UserKnownHostsFile:    opts.UserKnownHostsFile,
		},
	}
}

// Load reads path over the defaults. Keys absent from the
// file keep their default value.
func Load(path string) (Config, error) {
	const errCtx = "loading config"

	cfg := Default()

	data, err := os.ReadFile(path) //nolint:gosec // path from CLI flag
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf(
			"%s: parse %s: %w", errCtx, path, err,
		)
	}

	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	const errCtx = "validating config"

	if c.Host == "" {
		return fmt.Errorf("%s: %w: host is required", errCtx, ErrInvalid)
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf(
			"%s: %w: port %d out of range", errCtx, ErrInvalid, c.Port,
		)
	}

	switch c.Transport {
	case "", TransportOpenSSH, TransportNative:
	default:
		return fmt.Errorf(
			"%s: %w: unknown transport %q",
			errCtx, ErrInvalid, c.Transport,
		)
	}

	if c.Task == "" {
		return fmt.Errorf("%s: %w: task is required", errCtx, ErrInvalid)
	}

	if _, err := c.connectTimeout(); err != nil {
		return fmt.Errorf("%s: %w: %w", errCtx, ErrInvalid, err)
	}

	return nil
}

func (c Config) connectTimeout() (time.Duration, error) {
	if c.SSH.ConnectTimeout == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(c.SSH.ConnectTimeout)
	if err != nil {
		return 0, fmt.Errorf("connect_timeout: %w", err)
	}

	if d < 0 {
		return 0, fmt.Errorf("connect_timeout: negative duration %s", d)
	}

	return d, nil
}

// Target converts the connection settings.
func (c Config) Target() (remote.Target, error) {
	const errCtx = "building target"

	timeout, err := c.connectTimeout()
	if err != nil {
		return remote.Target{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	return remote.Target{
		Host: c.Host,
		User: c.User,
		Port: c.Port,
		Options: remote.Options{
			StrictHostKeyChecking: c.SSH.StrictHostKeyChecking,
			UserKnownHostsFile:    c.SSH.UserKnownHostsFile,
			ConnectTimeout:        timeout,
			IdentityFiles:         append([]string(nil), c.SSH.IdentityFiles...),
		},
	}, nil
}

// Checker converts the settings into an uptodate.Config.
func (c Config) Checker() (uptodate.Config, error) {
	const errCtx = "building checker config"

	tg, err := c.Target()
	if err != nil {
		return uptodate.Config{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	return uptodate.Config{
		Target:          tg,
		Files:           append([]string(nil), c.Files...),
		ChecksumCommand: c.ChecksumCommand,
	}, nil
}

// Pattern: Factory -- selects the transport at runtime.

// Dialer returns the configured transport.
func (c Config) Dialer() (remote.Dialer, error) {
	const errCtx = "creating dialer"

	switch c.Transport {
	case "", TransportOpenSSH:
		return openssh.NewDialer(c.SSH.Binary), nil
	case TransportNative:
		return native.NewDialer(), nil
	default:
		return nil, fmt.Errorf(
			"%s: %w: unknown transport %q",
			errCtx, ErrInvalid, c.Transport,
		)
	}
}
