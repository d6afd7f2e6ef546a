package python

import (
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/rs/zerolog"
)

// Dispatcher runs invocations as child processes. The Run function is a
// variable so tests can intercept the exec without spawning anything.
type Dispatcher struct {
	// Dir is the working directory for the child process ("" = inherit).
	Dir string

	// Run executes the command and returns its exit code. Defaults to
	// runProcess.
	Run func(ctx context.Context, dir string, command []string, logger zerolog.Logger) (int, error)
}

func NewDispatcher(dir string) *Dispatcher {
	return &Dispatcher{
		Dir: dir,
		Run: runProcess,
	}
}

// Dispatch invokes the script and surfaces its exit status as-is: no
// retries, no interpretation of the script's own errors. A non-zero exit
// comes back as (code, nil); failure to start the process at all comes back
// as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, inv *Invocation, logger zerolog.Logger) (int, error) {
	return d.Run(ctx, d.Dir, inv.Command(), logger)
}

func runProcess(ctx context.Context, dir string, command []string, logger zerolog.Logger) (int, error) {
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir

	// The child's output goes straight through: under SLURM it lands in the
	// array task's .out/.err files, locally it reaches the terminal or the
	// run log.
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	logger.Debug().Strs("command", command).Msg("Starting external process")

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
