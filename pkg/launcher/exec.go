package launcher

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Exit codes used when a child process couldn't be started. They follow the usual shell conventions.
const (
	ExitFailure  = 1
	ExitNotFound = 127
)

// ErrNotFound is returned when the executable of a command couldn't be located
var ErrNotFound = eris.New("executable not found")

// Command describes a single child process
type Command struct {
	Path string
	Args []string
	Env  []string
}

// Result is the outcome of a finished child process. Stdout and Stderr are only filled if the
// runner captures output.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Runner starts a command and waits for it to exit
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ProcessRunner runs commands as real subprocesses. Nil streams default to the ones of the
// current process.
type ProcessRunner struct {
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Capture bool
}

// Run executes cmd and blocks until it exits. A non-zero exit code is reported through the
// result, not as an error. Cancelling ctx kills the child.
func (r *ProcessRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	var result Result

	path, err := lookPath(cmd.Path, cmd.Env)
	if err != nil {
		return result, err
	}

	proc := exec.CommandContext(ctx, path)
	proc.Args = append([]string{cmd.Path}, cmd.Args...)
	proc.Env = cmd.Env
	proc.Stdin = r.Stdin
	proc.Stdout = r.Stdout
	proc.Stderr = r.Stderr

	if proc.Stdin == nil {
		proc.Stdin = os.Stdin
	}
	if proc.Stdout == nil {
		proc.Stdout = os.Stdout
	}
	if proc.Stderr == nil {
		proc.Stderr = os.Stderr
	}

	var stdout, stderr bytes.Buffer
	if r.Capture {
		proc.Stdout = io.MultiWriter(proc.Stdout, &stdout)
		proc.Stderr = io.MultiWriter(proc.Stderr, &stderr)
	}

	log(ctx).Debug().
		Str("path", path).
		Strs("args", cmd.Args).
		Msg("starting process")

	err = proc.Run()
	if r.Capture {
		result.Stdout = stdout.Bytes()
		result.Stderr = stderr.Bytes()
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, eris.Wrapf(ctxErr, "%s was interrupted", cmd.Path)
		}

		var exitErr *exec.ExitError
		if eris.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			if result.ExitCode < 0 {
				result.ExitCode = signalExitCode(exitErr)
			}
			return result, nil
		}

		return result, eris.Wrapf(err, "failed to run %s", cmd.Path)
	}

	return result, nil
}

// lookPath resolves file against the PATH of the child environment instead of our own since the
// launcher may have prepended directories to it.
func lookPath(file string, env []string) (string, error) {
	if strings.ContainsAny(file, `/\`) {
		path, err := exec.LookPath(file)
		if err != nil {
			return "", eris.Wrapf(ErrNotFound, "%s: %s", file, err.Error())
		}
		return path, nil
	}

	pathVar, ok := lookupEnv(env, "PATH")
	if !ok {
		pathVar = os.Getenv("PATH")
	}

	for _, dir := range filepath.SplitList(pathVar) {
		candidate := filepath.Join(dir, file)
		if dir == "" || dir == "." {
			candidate = "." + string(filepath.Separator) + file
		}

		path, err := exec.LookPath(candidate)
		if err == nil {
			return path, nil
		}
	}

	return "", eris.Wrapf(ErrNotFound, "%s not found in PATH", file)
}
