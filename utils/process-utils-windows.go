//go:build windows

package utils

import (
	"os/exec"
)

// ConfigureKillableProcAttr is a no-op on Windows since process groups
// work differently. Context cancellation handles process termination.
func ConfigureKillableProcAttr(cmd *exec.Cmd) {
	// No-op on Windows
}
