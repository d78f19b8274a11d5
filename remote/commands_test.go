package remote_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/remotedep/remote"
	"github.com/byte4ever/remotedep/remote/remotetest"
)

func openSession(
	t *testing.T,
	host *remotetest.Host,
) remote.Session {
	t.Helper()

	sess, err := host.Dial(
		context.Background(), remote.NewTarget("h"),
	)
	require.NoError(t, err)

	return sess
}

func TestExists_present_and_absent(t *testing.T) {
	t.Parallel()

	host := remotetest.NewHost(map[string]string{
		"/etc/hosts": "127.0.0.1 localhost\n",
	})
	sess := openSession(t, host)

	ok, err := remote.Exists(context.Background(), sess, "/etc/hosts")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = remote.Exists(context.Background(), sess, "/etc/missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExists_unexpected_status_is_command_error(t *testing.T) {
	t.Parallel()

	host := remotetest.NewHost(nil)
	host.FailOn["test -e"] = 2
	sess := openSession(t, host)

	_, err := remote.Exists(context.Background(), sess, "/x")

	require.Error(t, err)
	assert.ErrorIs(t, err, remote.ErrRemoteCommand)
	assert.ErrorIs(t, err, remote.ErrRemoteExecution)

	var cmdErr *remote.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 2, cmdErr.ExitCode)
}

func TestExists_dropped_connection(t *testing.T) {
	t.Parallel()

	host := remotetest.NewHost(nil)
	host.DropOn = "test"
	sess := openSession(t, host)

	_, err := remote.Exists(context.Background(), sess, "/x")

	require.Error(t, err)
	assert.ErrorIs(t, err, remote.ErrConnection)
	assert.NotErrorIs(t, err, remote.ErrRemoteCommand)
}

func TestChecksum_returns_first_field(t *testing.T) {
	t.Parallel()

	host := remotetest.NewHost(map[string]string{
		"/srv/app.conf": "listen 80\n",
	})
	sess := openSession(t, host)

	got, err := remote.Checksum(
		context.Background(), sess, "", "/srv/app.conf",
	)

	require.NoError(t, err)
	assert.Equal(t, remotetest.Sum("listen 80\n"), got)
	assert.Equal(
		t,
		[]string{"gmd5sum /srv/app.conf"},
		host.Commands(),
	)
}

func TestChecksum_custom_template(t *testing.T) {
	t.Parallel()

	host := remotetest.NewHost(map[string]string{
		"/a": "x",
	})
	sess := openSession(t, host)

	got, err := remote.Checksum(
		context.Background(), sess, "md5sum {path}", "/a",
	)

	require.NoError(t, err)
	assert.Equal(t, remotetest.Sum("x"), got)
}

func TestChecksum_non_zero_exit(t *testing.T) {
	t.Parallel()

	host := remotetest.NewHost(nil)
	sess := openSession(t, host)

	_, err := remote.Checksum(
		context.Background(), sess, "", "/missing",
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, remote.ErrRemoteCommand)
}

func TestChecksum_unparseable_output(t *testing.T) {
	t.Parallel()

	empty := "   \n"
	host := remotetest.NewHost(map[string]string{"/a": "x"})
	host.Output = &empty
	sess := openSession(t, host)

	_, err := remote.Checksum(context.Background(), sess, "", "/a")

	require.Error(t, err)
	assert.ErrorIs(t, err, remote.ErrRemoteCommand)
	assert.Contains(t, err.Error(), "unparseable")
}

func TestParseChecksum(t *testing.T) {
	t.Parallel()

	got, err := remote.ParseChecksum(
		"d41d8cd98f00b204e9800998ecf8427e  /tmp/empty\n",
	)

	require.NoError(t, err)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", got)

	_, err = remote.ParseChecksum("")
	assert.Error(t, err)
}

func TestRenderCommand_quotes_path(t *testing.T) {
	t.Parallel()

	assert.Equal(
		t,
		"gmd5sum '/tmp/my file'",
		remote.RenderCommand("", "/tmp/my file"),
	)
	assert.Equal(
		t,
		"sha1sum /etc/a.conf {other}",
		remote.RenderCommand("sha1sum {path} {other}", "/etc/a.conf"),
	)
}

func TestShellQuote(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":             "''",
		"/etc/hosts":   "/etc/hosts",
		"a b":          "'a b'",
		"it's":         `'it'"'"'s'`,
		"$(rm -rf /)":  "'$(rm -rf /)'",
		"user@host:22": "user@host:22",
	}

	for in, want := range tests {
		assert.Equal(t, want, remote.ShellQuote(in), in)
	}
}

func FuzzParseChecksum(f *testing.F) {
	f.Add("d41d8cd98f00b204e9800998ecf8427e  /x\n")
	f.Add("")
	f.Add("\t\n")

	f.Fuzz(func(t *testing.T, out string) {
		got, err := remote.ParseChecksum(out)
		if err != nil {
			assert.Empty(t, got)

			return
		}

		assert.NotEmpty(t, got)
		assert.NotContains(t, got, " ")
	})
}
