// Package solver hosts the one subprocess boundary the core pipeline
// touches: handing a rendered WS1S script to an external decision
// procedure and reporting back what it printed and how it exited. It does
// not interpret that output — classifying a run as proven, not proven, or
// an error is the driver's job.
package solver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Solver invokes a fixed external binary against a staged script file.
type Solver struct {
	BinaryPath string
	Args       []string
}

// New returns a Solver that runs binaryPath with extraArgs followed by the
// staged script path on every Run call.
func New(binaryPath string, extraArgs ...string) *Solver {
	return &Solver{BinaryPath: binaryPath, Args: extraArgs}
}

// Result is the raw outcome of one subprocess invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run stages script to a temporary file owned exclusively by this call,
// invokes the solver against it, and returns the captured output.
// Cancelling ctx kills the subprocess (exec.CommandContext's SIGKILL
// behavior) and Run reports ctx.Err() instead of any partial output. The
// staged file is removed on every exit path.
func (s *Solver) Run(ctx context.Context, script string) (Result, error) {
	f, err := os.CreateTemp("", "flowtrap-*.mona")
	if err != nil {
		return Result{}, fmt.Errorf("staging solver script: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(script); err != nil {
		f.Close()
		return Result{}, fmt.Errorf("writing solver script: %w", err)
	}
	if err := f.Close(); err != nil {
		return Result{}, fmt.Errorf("closing solver script: %w", err)
	}

	args := append(append([]string{}, s.Args...), path)
	cmd := exec.CommandContext(ctx, s.BinaryPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		result.ExitCode = 0
	case errors.As(runErr, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		return Result{}, fmt.Errorf("invoking solver %q: %w", s.BinaryPath, runErr)
	}
	return result, nil
}
