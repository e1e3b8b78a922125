package diskimage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Runner executes external commands. Calls block until the process exits.
type Runner interface {
	// Run executes the command and streams its output to the runner's writers.
	Run(ctx context.Context, name string, args ...string) error
	// Output executes the command and returns what it printed on stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ToolError reports a failed external command.
type ToolError struct {
	// Command is the executable that failed.
	Command string
	// Args are the arguments it was started with.
	Args []string
	// Stderr holds captured diagnostic output, when any was captured.
	Stderr string
	// Err is the underlying exec error, usually *exec.ExitError.
	Err error
}

// Error implements error.
func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Command, strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}

	return msg
}

// Unwrap returns the underlying exec error.
func (e *ToolError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Stdout receives streamed output of Run. Defaults to os.Stdout.
	Stdout io.Writer
	// Stderr receives streamed diagnostics of Run and Output. Defaults to os.Stderr.
	Stderr io.Writer
}

// NewExecRunner returns a runner wired to the process standard streams.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = r.stdout()
	cmd.Stderr = r.stderr()

	if err := cmd.Run(); err != nil {
		return &ToolError{Command: name, Args: args, Err: err}
	}

	return nil
}

// Output implements Runner.
func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = io.MultiWriter(&stderr, r.stderr())

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), &ToolError{
			Command: name,
			Args:    args,
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}

	return stdout.Bytes(), nil
}

func (r *ExecRunner) stdout() io.Writer {
	if r.Stdout == nil {
		return os.Stdout
	}

	return r.Stdout
}

func (r *ExecRunner) stderr() io.Writer {
	if r.Stderr == nil {
		return os.Stderr
	}

	return r.Stderr
}
