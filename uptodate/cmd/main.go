// Command remote_uptodate checks whether remote files changed since the last
// recorded run. It exits 0 when they did not, 3 when they did and 1 on
// error. With --exec it runs the given shell command when the files changed
// and records the new state once the command succeeds.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/byte4ever/remotedep/config"
	"github.com/byte4ever/remotedep/exec"
	"github.com/byte4ever/remotedep/statestore"
	"github.com/byte4ever/remotedep/taskrun"
	"github.com/byte4ever/remotedep/uptodate"
)

// exitStale is returned when the watched files changed.
const exitStale = 3

// sliceFlag implements flag.Value for repeated string
// flags.
type sliceFlag []string

// String returns the values comma separated.
func (s *sliceFlag) String() string {
	if s == nil {
		return ""
	}

	return strings.Join(*s, ",")
}

// Set appends a value to the slice.
func (s *sliceFlag) Set(val string) error {
	*s = append(*s, val)

	return nil
}

// discardTask ignores value savers; used for read-only
// checks.
type discardTask struct{}

func (discardTask) AddValueSaver(uptodate.ValueSaver) {}

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt,
	)

	upToDate, err := run(ctx, os.Args[1:])

	stop()

	os.Exit(exitCode(upToDate, err))
}

// exitCode maps the run outcome to the process status.
// Asking for usage is not a failure.
func exitCode(upToDate bool, err error) int {
	switch {
	case errors.Is(err, flag.ErrHelp):
		return 0
	case err != nil:
		slog.Error("fatal", "error", err)

		return 1
	case !upToDate:
		return exitStale
	default:
		return 0
	}
}

//nolint:funlen // CLI flag setup is inherently long
func run(ctx context.Context, args []string) (bool, error) {
	const errCtx = "running remote_uptodate"

	fs := flag.NewFlagSet("remote_uptodate", flag.ContinueOnError)

	configPath := fs.String(
		"config", "",
		"YAML configuration file",
	)
	host := fs.String("host", "", "Remote host address")
	user := fs.String("user", "", "SSH user (default root)")
	port := fs.Int("port", 0, "SSH port (default 22)")
	transport := fs.String(
		"transport", "",
		"SSH transport: openssh or native",
	)
	checksumCmd := fs.String(
		"checksum_command", "",
		"Remote checksum command, {path} is the file",
	)
	task := fs.String("task", "", "Task name in the state file")
	stateFile := fs.String("state", "", "State file path")
	execCmd := fs.String(
		"exec", "",
		"Shell command run when files changed",
	)
	save := fs.Bool(
		"save", false,
		"Record the current state when files changed",
	)
	verbose := fs.Bool("v", false, "Enable debug logging")

	var files sliceFlag

	fs.Var(&files, "file", "Remote file to watch (repeatable)")

	if err := fs.Parse(args); err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	cfg := config.Default()

	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return false, fmt.Errorf("%s: %w", errCtx, err)
		}

		cfg = loaded
	}

	// Explicit flags override the configuration file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = *host
		case "user":
			cfg.User = *user
		case "port":
			cfg.Port = *port
		case "transport":
			cfg.Transport = *transport
		case "checksum_command":
			cfg.ChecksumCommand = *checksumCmd
		case "task":
			cfg.Task = *task
		case "state":
			cfg.StateFile = *stateFile
		case "file":
			cfg.Files = files
		}
	})

	if err := cfg.Validate(); err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	chkCfg, err := cfg.Checker()
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	dialer, err := cfg.Dialer()
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	store, err := statestore.Open(cfg.StateFile)
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	checker, err := uptodate.New(ctx, chkCfg, dialer)
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	if *execCmd == "" && !*save {
		ok, err := checker.Check(
			ctx, discardTask{}, store.Values(cfg.Task),
		)
		if err != nil {
			return false, fmt.Errorf("%s: %w", errCtx, err)
		}

		return ok, nil
	}

	tk := &taskrun.Task{
		Name:     cfg.Task,
		UpToDate: []taskrun.Predicate{checker},
	}

	if *execCmd != "" {
		command := *execCmd
		tk.Action = func(ctx context.Context) error {
			_, err := exec.Ex(ctx, "", "sh", "-c", command)

			return err
		}
	}

	status, err := taskrun.Run(ctx, store, tk)
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info(
		"done",
		"task", cfg.Task,
		"status", status.String(),
		"state_file", store.Path(),
	)

	// A successful --exec brings the task up to date.
	return status == taskrun.Skipped || status == taskrun.Executed, nil
}
