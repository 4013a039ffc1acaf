package launcher

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/rotisserie/eris"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
}

func TestProcessRunnerExitCodes(t *testing.T) {
	skipOnWindows(t)

	for _, code := range []int{0, 1, 42, 123} {
		runner := &ProcessRunner{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
		result, err := runner.Run(context.Background(), Command{
			Path: "sh",
			Args: []string{"-c", "exit " + strconv.Itoa(code)},
			Env:  os.Environ(),
		})
		if err != nil {
			t.Fatal(err)
		}

		if result.ExitCode != code {
			t.Errorf("ExitCode = %d, want %d", result.ExitCode, code)
		}
	}
}

func TestProcessRunnerCapture(t *testing.T) {
	skipOnWindows(t)

	var stdout, stderr bytes.Buffer
	runner := &ProcessRunner{Stdout: &stdout, Stderr: &stderr, Capture: true}
	result, err := runner.Run(context.Background(), Command{
		Path: "sh",
		Args: []string{"-c", `echo "out $1"; echo err >&2`, "sh", "arg"},
		Env:  append(os.Environ(), "LAUNCHER_TEST=1"),
	})
	if err != nil {
		t.Fatal(err)
	}

	if string(result.Stdout) != "out arg\n" || stdout.String() != "out arg\n" {
		t.Errorf("stdout = %q / %q", result.Stdout, stdout.String())
	}

	if string(result.Stderr) != "err\n" {
		t.Errorf("stderr = %q", result.Stderr)
	}
}

func TestProcessRunnerUsesChildPath(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	script := filepath.Join(dir, "launcher-test-tool")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho found\n"), 0755); err != nil {
		t.Fatal(err)
	}

	runner := &ProcessRunner{Stdout: &bytes.Buffer{}, Capture: true}
	result, err := runner.Run(context.Background(), Command{
		Path: "launcher-test-tool",
		Env:  []string{"PATH=" + dir + string(os.PathListSeparator) + os.Getenv("PATH")},
	})
	if err != nil {
		t.Fatal(err)
	}

	if string(result.Stdout) != "found\n" {
		t.Errorf("stdout = %q", result.Stdout)
	}
}

func TestProcessRunnerNotFound(t *testing.T) {
	runner := &ProcessRunner{}
	_, err := runner.Run(context.Background(), Command{
		Path: "definitely-not-a-real-launcher-tool",
		Env:  []string{"PATH=" + t.TempDir()},
	})

	if !eris.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if LaunchExitCode(err) != ExitNotFound {
		t.Errorf("LaunchExitCode() = %d, want %d", LaunchExitCode(err), ExitNotFound)
	}
}

func TestProcessRunnerSignals(t *testing.T) {
	skipOnWindows(t)

	tests := []struct {
		script string
		want   int
	}{
		{"kill -KILL $$", 137},
		{"kill -TERM $$", 143},
	}

	for _, tt := range tests {
		runner := &ProcessRunner{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
		result, err := runner.Run(context.Background(), Command{
			Path: "sh",
			Args: []string{"-c", tt.script},
			Env:  os.Environ(),
		})
		if err != nil {
			t.Fatal(err)
		}

		if result.ExitCode != tt.want {
			t.Errorf("%q: ExitCode = %d, want %d", tt.script, result.ExitCode, tt.want)
		}
	}
}

func TestProcessRunnerCancel(t *testing.T) {
	skipOnWindows(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	runner := &ProcessRunner{}
	_, err := runner.Run(ctx, Command{
		Path: "sh",
		Args: []string{"-c", "exec sleep 30"},
		Env:  os.Environ(),
	})

	if !eris.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected a deadline error, got %v", err)
	}

	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("child kept running for %s after the context expired", elapsed)
	}
}
