// Package automation is the process boundary of castanaut: everything that
// reaches the OS goes through a Runner, and AppleScript source goes through
// a ScriptExecutor built on top of one.
package automation

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/castanaut/castanaut/types"
	"github.com/castanaut/castanaut/utils"
)

// Runner executes a shell command line and returns its stdout. A non-zero
// exit status is reported as *types.ExternalActionError.
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, command string) (string, error)

func (f RunnerFunc) Run(ctx context.Context, command string) (string, error) {
	return f(ctx, command)
}

// ShellRunner runs commands through a POSIX shell.
type ShellRunner struct {
	Shell string
	Env   []string
}

// NewShellRunner returns a runner using the given shell, /bin/sh when empty.
func NewShellRunner(shell string) *ShellRunner {
	if shell == "" {
		shell = "/bin/sh"
	}
	return &ShellRunner{Shell: shell}
}

func (r *ShellRunner) Run(ctx context.Context, command string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, r.Shell, "-c", command)
	utils.ConfigureKillableProcAttr(cmd)
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	utils.Verbose("run: %s", command)
	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return stdout.String(), ctxErr
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), &types.ExternalActionError{
				Command:  command,
				ExitCode: exitErr.ExitCode(),
				Output:   stderr.String(),
			}
		}
		return stdout.String(), err
	}

	return stdout.String(), nil
}
