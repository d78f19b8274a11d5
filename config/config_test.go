package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/remotedep/config"
	"github.com/byte4ever/remotedep/remote/native"
	"github.com/byte4ever/remotedep/remote/openssh"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	pa := filepath.Join(t.TempDir(), "remote_uptodate.yaml")
	require.NoError(t, os.WriteFile(pa, []byte(content), 0o600))

	return pa
}

func TestLoad_full_file(t *testing.T) {
	t.Parallel()

	pa := writeConfig(t, `
host: "fe80::10"
user: deploy
port: 2222
transport: native
checksum_command: "md5sum {path}"
task: sync-config
state_file: /var/lib/remote_uptodate.json
files:
  - /etc/app/app.conf
  - /etc/app/app.env
ssh:
  strict_host_key_checking: true
  user_known_hosts_file: /home/deploy/.ssh/known_hosts
  connect_timeout: 5s
  identity_files:
    - /home/deploy/.ssh/id_ed25519
`)

	cfg, err := config.Load(pa)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "fe80::10", cfg.Host)
	assert.Equal(t, "deploy", cfg.User)
	assert.Equal(t, config.TransportNative, cfg.Transport)
	assert.Equal(t, "sync-config", cfg.Task)
	assert.Equal(
		t,
		[]string{"/etc/app/app.conf", "/etc/app/app.env"},
		cfg.Files,
	)

	tg, err := cfg.Target()
	require.NoError(t, err)

	assert.Equal(t, "[fe80::10]:2222", tg.Addr())
	assert.True(t, tg.Options.StrictHostKeyChecking)
	assert.Equal(t, 5*time.Second, tg.Options.ConnectTimeout)
	assert.Equal(
		t,
		[]string{"/home/deploy/.ssh/id_ed25519"},
		tg.Options.IdentityFiles,
	)

	chk, err := cfg.Checker()
	require.NoError(t, err)
	assert.Equal(t, "md5sum {path}", chk.ChecksumCommand)
	assert.Equal(t, cfg.Files, chk.Files)
}

func TestLoad_keeps_defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(writeConfig(t, "host: box\n"))
	require.NoError(t, err)

	assert.Equal(t, "root", cfg.User)
	assert.Equal(t, 22, cfg.Port)
	assert.Equal(t, config.TransportOpenSSH, cfg.Transport)
	assert.Equal(t, "gmd5sum {path}", cfg.ChecksumCommand)
	assert.Equal(t, config.DefaultStateFile, cfg.StateFile)
	assert.False(t, cfg.SSH.StrictHostKeyChecking)
	assert.Equal(t, "/dev/null", cfg.SSH.UserKnownHostsFile)
}

func TestLoad_missing_file(t *testing.T) {
	t.Parallel()

	_, err := config.Load("/nonexistent/config.yaml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}

func TestLoad_bad_yaml(t *testing.T) {
	t.Parallel()

	_, err := config.Load(writeConfig(t, "files: [unterminated\n"))

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := config.Default()
	valid.Host = "box"

	tests := map[string]func(c *config.Config){
		"missing host":      func(c *config.Config) { c.Host = "" },
		"bad port":          func(c *config.Config) { c.Port = 70000 },
		"unknown transport": func(c *config.Config) { c.Transport = "telnet" },
		"empty task":        func(c *config.Config) { c.Task = "" },
		"bad timeout":       func(c *config.Config) { c.SSH.ConnectTimeout = "soon" },
		"negative timeout":  func(c *config.Config) { c.SSH.ConnectTimeout = "-1s" },
	}

	require.NoError(t, valid.Validate())

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := valid
			mutate(&cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.ErrorIs(t, err, config.ErrInvalid)
		})
	}
}

func TestDialer_factory(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	dl, err := cfg.Dialer()
	require.NoError(t, err)
	assert.IsType(t, &openssh.Dialer{}, dl)

	cfg.Transport = config.TransportNative

	dl, err = cfg.Dialer()
	require.NoError(t, err)
	assert.IsType(t, &native.Dialer{}, dl)

	cfg.Transport = "rsh"

	_, err = cfg.Dialer()
	assert.ErrorIs(t, err, config.ErrInvalid)
}
