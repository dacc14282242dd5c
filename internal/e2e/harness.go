// Package e2e provides testing infrastructure for end-to-end CLI tests.
// It includes a harness for running tasksync commands, fixture management,
// and utilities for setting up isolated test environments.
package e2e

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/klauern/tasksync/internal/cli"
)

// Result contains the outcome of running a CLI command.
type Result struct {
	// Stdout contains the captured standard output.
	Stdout string
	// Stderr contains the captured standard error (logs and progress).
	Stderr string
	// Err is the error returned by the CLI command, if any.
	Err error
	// ExitCode is the inferred exit code (0 for success, 1 for error).
	ExitCode int
}

// Success returns true if the command completed without error.
func (r *Result) Success() bool {
	return r.Err == nil
}

// Harness provides a test harness for running E2E CLI tests.
// It manages environment isolation, temp directories, and output capture.
type Harness struct {
	t       *testing.T
	homeDir string
}

// NewHarness creates a new E2E test harness with an isolated TASKSYNC_HOME.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	h := &Harness{
		t:       t,
		homeDir: t.TempDir(),
	}

	h.SetEnv("HOME", h.homeDir)
	h.SetEnv("TASKSYNC_HOME", h.homeDir)
	h.SetEnv("TASKSYNC_PLATFORM", "e2e-host")

	return h
}

// SetEnv sets an environment variable for CLI commands run through this harness.
// The environment will be restored after the test completes.
func (h *Harness) SetEnv(key, value string) {
	h.t.Helper()
	h.t.Setenv(key, value)
}

// HomeDir returns the isolated home directory for this test harness.
func (h *Harness) HomeDir() string {
	return h.homeDir
}

// Run executes a CLI command with colors disabled and captures its output.
func (h *Harness) Run(args ...string) *Result {
	h.t.Helper()
	return h.run(nil, args)
}

// RunWithStdin executes a CLI command reading stdin from the given string.
// Commands that take "-" as a file read from it.
func (h *Harness) RunWithStdin(stdin string, args ...string) *Result {
	h.t.Helper()

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		h.t.Fatalf("failed to create stdin pipe: %v", err)
	}
	go func() {
		defer func() { _ = stdinW.Close() }()
		_, _ = stdinW.WriteString(stdin)
	}()

	return h.run(stdinR, args)
}

func (h *Harness) run(stdin *os.File, args []string) *Result {
	h.t.Helper()

	if len(args) == 0 || args[0] != "tasksync" {
		args = append([]string{"tasksync", "--no-color"}, args...)
	}

	if stdin != nil {
		oldStdin := os.Stdin
		os.Stdin = stdin
		defer func() {
			os.Stdin = oldStdin
			_ = stdin.Close()
		}()
	}

	stdout := h.capture(&os.Stdout)
	stderr := h.capture(&os.Stderr)

	cmdErr := cli.Run(context.Background(), args)

	exitCode := 0
	if cmdErr != nil {
		exitCode = 1
	}

	return &Result{
		Stdout:   stdout(),
		Stderr:   stderr(),
		Err:      cmdErr,
		ExitCode: exitCode,
	}
}

// capture redirects *target to a pipe and returns a function that restores
// it and yields everything written in between. The pipe is drained
// concurrently so large outputs cannot fill the pipe buffer and block.
func (h *Harness) capture(target **os.File) func() string {
	h.t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		h.t.Fatalf("failed to create pipe: %v", err)
	}
	old := *target
	*target = w

	var buf bytes.Buffer
	var copyErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, copyErr = io.Copy(&buf, r)
	}()

	return func() string {
		if err := w.Close(); err != nil {
			h.t.Fatalf("failed to close pipe writer: %v", err)
		}
		*target = old
		<-done
		if copyErr != nil {
			h.t.Fatalf("failed to read captured output: %v", copyErr)
		}
		return buf.String()
	}
}
