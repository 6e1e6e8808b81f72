//go:build unix

package utils

import (
	"os/exec"
	"syscall"
)

// ConfigureKillableProcAttr starts the command in its own process group and
// makes context cancellation kill the whole group, so helpers spawned by a
// shell (osascript, say) go down with it.
func ConfigureKillableProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    0,
	}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
