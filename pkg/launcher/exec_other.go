//go:build !unix

package launcher

import "os/exec"

func signalExitCode(exitErr *exec.ExitError) int {
	return ExitFailure
}
