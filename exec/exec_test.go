package exec_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/remotedep/exec"
)

func TestEx_success(t *testing.T) {
	t.Parallel()

	out, err := exec.Ex(context.Background(), "", "echo", "hello")

	require.NoError(t, err)
	assert.Contains(t, out, "hello")
}

func TestEx_with_dir(t *testing.T) {
	t.Parallel()

	out, err := exec.Ex(context.Background(), "/tmp", "pwd")

	require.NoError(t, err)
	assert.Contains(t, out, "/tmp")
}

func TestEx_failure(t *testing.T) {
	t.Parallel()

	_, err := exec.Ex(context.Background(), "", "false")

	assert.Error(t, err)
}

func TestRun_separates_streams(t *testing.T) {
	t.Parallel()

	out, err := exec.Run(
		context.Background(),
		"sh", "-c", "echo out; echo err 1>&2",
	)

	require.NoError(t, err)
	assert.Equal(t, "out\n", out.Stdout)
	assert.Equal(t, "err\n", out.Stderr)
	assert.Zero(t, out.ExitCode)
}

func TestRun_reports_exit_code(t *testing.T) {
	t.Parallel()

	out, err := exec.Run(
		context.Background(), "sh", "-c", "exit 7",
	)

	require.NoError(t, err)
	assert.Equal(t, 7, out.ExitCode)
}

func TestRun_missing_binary(t *testing.T) {
	t.Parallel()

	_, err := exec.Run(
		context.Background(), "/nonexistent/binary",
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, exec.ErrStart)
}

func TestRun_cancelled_context(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Run(ctx, "sleep", "5")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
