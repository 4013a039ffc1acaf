//go:build unix

package launcher

import (
	"os/exec"
	"syscall"
)

// signalExitCode reports a child killed by a signal the way a POSIX shell does (128 + signal)
func signalExitCode(exitErr *exec.ExitError) int {
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok || !status.Signaled() {
		return ExitFailure
	}

	return 128 + int(status.Signal())
}
