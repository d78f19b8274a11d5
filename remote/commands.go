package remote

import (
	"context"
	"fmt"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/valyala/fasttemplate"
)

// DefaultChecksumCommand is the remote checksum command
// template. {path} is replaced with the shell-quoted file
// path.
const DefaultChecksumCommand = "gmd5sum {path}"

// Exists reports whether path exists on the remote host
// using test -e. Exit status 1 means absent; any other
// non-zero status is a CommandError.
func Exists(
	ctx context.Context,
	sess Session,
	path string,
) (bool, error) {
	const errCtx = "testing remote file existence"

	cmd := "test -e " + ShellQuote(path)

	res, err := sess.Run(ctx, cmd)
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	switch res.ExitCode {
	case 0:
		return true, nil
	case 1:
		return false, nil
	default:
		return false, fmt.Errorf("%s: %w", errCtx, &CommandError{
			Cmd:      cmd,
			ExitCode: res.ExitCode,
			Stderr:   strings.TrimSpace(res.Stderr),
		})
	}
}

// Checksum runs the checksum command rendered from tpl
// against path and returns the first whitespace-delimited
// field of its output. An empty tpl selects
// DefaultChecksumCommand.
func Checksum(
	ctx context.Context,
	sess Session,
	tpl string,
	path string,
) (string, error) {
	const errCtx = "computing remote checksum"

	cmd := RenderCommand(tpl, path)

	res, err := sess.Run(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	if res.ExitCode != 0 {
		return "", fmt.Errorf("%s: %w", errCtx, &CommandError{
			Cmd:      cmd,
			ExitCode: res.ExitCode,
			Stderr:   strings.TrimSpace(res.Stderr),
		})
	}

	sum, err := ParseChecksum(res.Stdout)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, &CommandError{
			Cmd:    cmd,
			Reason: err.Error(),
		})
	}

	return sum, nil
}

// ParseChecksum extracts the first whitespace-delimited
// token of md5sum-style output.
func ParseChecksum(out string) (string, error) {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return "", fmt.Errorf("unparseable checksum output %q", out)
	}

	return fields[0], nil
}

// RenderCommand substitutes {path} in tpl with the
// shell-quoted path. Unknown tags are preserved.
func RenderCommand(tpl string, path string) string {
	if tpl == "" {
		tpl = DefaultChecksumCommand
	}

	return fasttemplate.ExecuteStringStd(
		tpl, "{", "}", map[string]interface{}{
			"path": ShellQuote(path),
		},
	)
}

// ShellQuote quotes s for a POSIX shell. Strings made of
// safe characters only are returned unchanged.
func ShellQuote(s string) string {
	return shellescape.Quote(s)
}
