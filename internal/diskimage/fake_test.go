package diskimage

import (
	"context"
	"strings"
)

// call records a single runner invocation.
type call struct {
	name string
	args []string
}

// fakeRunner records invocations and replays canned results.
type fakeRunner struct {
	// calls lists every invocation in order.
	calls []call
	// output is returned from Output calls.
	output []byte
	// errs maps a sub-command (first argument) to the error it returns.
	errs map[string]error
}

// Run records the call and returns the configured error for its sub-command.
func (f *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	f.calls = append(f.calls, call{name: name, args: args})

	return f.errs[args[0]]
}

// Output records the call and returns the canned output.
func (f *fakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})

	return f.output, f.errs[args[0]]
}

// commandLine renders call i for readable assertions.
func (f *fakeRunner) commandLine(i int) string {
	return f.calls[i].name + " " + strings.Join(f.calls[i].args, " ")
}
