// fake_runner.go - Scripted adb runner for testing
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FakeResponse is the scripted result of one command.
type FakeResponse struct {
	Output string
	Err    error
}

// FakeRunner answers adb commands from a script keyed by the space-joined
// arguments and records every call.
type FakeRunner struct {
	responses map[string]FakeResponse
	prefixes  map[string]FakeResponse
	calls     [][]string
	mu        sync.Mutex
}

// NewFakeRunner creates a runner with no scripted commands
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		responses: make(map[string]FakeResponse),
		prefixes:  make(map[string]FakeResponse),
	}
}

func (f *FakeRunner) Run(ctx context.Context, args ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, append([]string(nil), args...))

	if err := ctx.Err(); err != nil {
		return "", err
	}
	command := strings.Join(args, " ")
	if resp, ok := f.responses[command]; ok {
		return resp.Output, resp.Err
	}
	for prefix, resp := range f.prefixes {
		if strings.HasPrefix(command, prefix) {
			return resp.Output, resp.Err
		}
	}
	return "", fmt.Errorf("unexpected adb command: %s", command)
}

// Test Helper Methods

// On scripts the output for a command
func (f *FakeRunner) On(command string, output string) *FakeRunner {
	return f.OnResponse(command, FakeResponse{Output: output})
}

// OnError scripts a failure for a command
func (f *FakeRunner) OnError(command string, err error) *FakeRunner {
	return f.OnResponse(command, FakeResponse{Err: err})
}

func (f *FakeRunner) OnResponse(command string, resp FakeResponse) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[command] = resp
	return f
}

// OnPrefix scripts the output of any command starting with prefix, for
// arguments the test cannot predict
func (f *FakeRunner) OnPrefix(prefix string, output string) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefixes[prefix] = FakeResponse{Output: output}
	return f
}

// Calls returns the space-joined arguments of every call in order
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.calls))
	for i, args := range f.calls {
		out[i] = strings.Join(args, " ")
	}
	return out
}

// CallCount returns the number of commands run
func (f *FakeRunner) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// Reset forgets recorded calls but keeps the script
func (f *FakeRunner) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
