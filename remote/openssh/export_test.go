package openssh

import (
	"context"

	"github.com/byte4ever/remotedep/exec"
)

// NewDialerWithRunForTest returns a Dialer whose command
// runner is replaced by run.
func NewDialerWithRunForTest(
	run func(
		ctx context.Context,
		name string,
		arg ...string,
	) (exec.Output, error),
) *Dialer {
	return &Dialer{Binary: "ssh", run: run}
}
