package digester

import (
	"context"
	"crypto/md5" //nolint:gosec // speed over strength, matches remote md5sum
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/byte4ever/remotedep/remote"
)

// EmptyDigest is the fingerprint of a file set where no
// file exists (md5 of empty input).
const EmptyDigest = "d41d8cd98f00b204e9800998ecf8427e"

// Digester computes remote fingerprints. A fresh session
// is opened for every computation and closed before it
// returns.
type Digester struct {
	// Dialer opens the remote session.
	Dialer remote.Dialer

	// ChecksumCommand is the remote checksum command
	// template. Empty selects
	// remote.DefaultChecksumCommand.
	ChecksumCommand string
}

// New returns a Digester using dialer and the default
// checksum command.
func New(dialer remote.Dialer) *Digester {
	return &Digester{Dialer: dialer}
}

// CalculateDigest returns the hex fingerprint of paths on
// target. Either every existing file is hashed or an
// error is returned; no partial digest is produced.
func (dg *Digester) CalculateDigest(
	ctx context.Context,
	target remote.Target,
	paths []string,
) (string, error) {
	const errCtx = "calculating remote digest"

	sess, err := dg.Dialer.Dial(ctx, target)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			slog.Warn(
				"closing remote session",
				"target", target.String(),
				"error", closeErr,
			)
		}
	}()

	ha := md5.New() //nolint:gosec // see import

	for _, pa := range paths {
		ok, err := remote.Exists(ctx, sess, pa)
		if err != nil {
			return "", fmt.Errorf("%s: %s: %w", errCtx, pa, err)
		}

		if !ok {
			slog.Debug("remote file missing", "path", pa)

			continue
		}

		sum, err := remote.Checksum(ctx, sess, dg.ChecksumCommand, pa)
		if err != nil {
			return "", fmt.Errorf("%s: %s: %w", errCtx, pa, err)
		}

		_, _ = ha.Write([]byte(sum)) //nolint:errcheck // hash writes never fail
	}

	return hex.EncodeToString(ha.Sum(nil)), nil
}

// Combine folds already-computed per-file checksums into a
// fingerprint exactly as CalculateDigest does.
func Combine(sums ...string) string {
	ha := md5.New() //nolint:gosec // see import

	for _, s := range sums {
		_, _ = ha.Write([]byte(s)) //nolint:errcheck // hash writes never fail
	}

	return hex.EncodeToString(ha.Sum(nil))
}
