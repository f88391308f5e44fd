// Package command wraps external-process invocation with consistent
// error capture. It never retries; retry policy belongs to the caller.
package command

import (
	"bytes"
	"context"
	goerrors "errors"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alamin-mahamud/dotfiles/pkg/errors"
	"github.com/alamin-mahamud/dotfiles/pkg/logging"
)

// Result holds the outcome of a completed process
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Opts controls how a command is run
type Opts struct {
	// Check turns a non-zero exit into a COMMAND_FAILED error
	Check bool
	// Capture collects stdout/stderr into the Result; when false the
	// child inherits the parent's streams
	Capture bool
	// Dir is the working directory; empty means the caller's current directory
	Dir string
	// Stdin is fed to the child's standard input when non-empty
	Stdin string
	// Env holds extra environment variables appended to the parent's
	Env []string
}

// DefaultOpts returns the default options: check and capture enabled
func DefaultOpts() Opts {
	return Opts{Check: true, Capture: true}
}

// Runner executes external commands
type Runner struct {
	log zerolog.Logger
}

// NewRunner creates a command runner
func NewRunner() *Runner {
	return &Runner{log: logging.GetLogger("command")}
}

// Run executes argv with default options
func (r *Runner) Run(ctx context.Context, argv []string) (Result, error) {
	return r.RunWith(ctx, argv, DefaultOpts())
}

// RunWith executes argv with the given options. A missing executable is
// reported as COMMAND_NOT_FOUND; a non-zero exit with Check enabled is
// reported as COMMAND_FAILED carrying argv, exit code, captured output
// and working directory.
func (r *Runner) RunWith(ctx context.Context, argv []string, opts Opts) (Result, error) {
	if len(argv) == 0 {
		return Result{}, errors.New(errors.ErrInvalidInput, "empty command")
	}

	r.log.Debug().Strs("argv", argv).Str("dir", opts.Dir).Msg("Executing command")

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = opts.Dir

	var stdout, stderr bytes.Buffer
	if opts.Capture {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	if opts.Stdin != "" {
		cmd.Stdin = strings.NewReader(opts.Stdin)
	}
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if err == nil {
		return res, nil
	}

	var execErr *exec.Error
	if goerrors.As(err, &execErr) && goerrors.Is(execErr.Err, exec.ErrNotFound) {
		return res, errors.Newf(errors.ErrCommandNotFound, "command not found: %s", argv[0]).
			WithDetail("argv", argv)
	}

	var exitErr *exec.ExitError
	if goerrors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		if !opts.Check {
			return res, nil
		}
		return res, errors.Wrapf(err, errors.ErrCommandFailed,
			"command failed: %s", strings.Join(argv, " ")).
			WithDetail("argv", argv).
			WithDetail("exitCode", res.ExitCode).
			WithDetail("stdout", res.Stdout).
			WithDetail("stderr", res.Stderr).
			WithDetail("dir", opts.Dir)
	}

	return res, errors.Wrapf(err, errors.ErrCommandFailed,
		"command failed: %s", strings.Join(argv, " ")).
		WithDetail("argv", argv).
		WithDetail("dir", opts.Dir)
}

// Exists reports whether an executable is available on PATH
func Exists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
