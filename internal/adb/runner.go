// Package adb runs the Android Debug Bridge and exposes the dumps the marker
// pipeline consumes.
package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrOutputTooLarge is returned when a command writes more than the
	// configured output limit.
	ErrOutputTooLarge = errors.New("adb output exceeds limit")
	// ErrStderr is returned when a command writes anything to stderr, even if
	// it exits successfully.
	ErrStderr = errors.New("adb wrote to stderr")
)

// DefaultMaxOutput bounds the stdout of a single command.
const DefaultMaxOutput = 50 * 1024 * 1024

// waitDelay bounds how long a cancelled command may hold its pipes open
// through grandchildren.
const waitDelay = 2 * time.Second

// Runner executes one adb invocation and returns its stdout.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecRunner runs the adb binary as a child process. Commands are never retried.
type ExecRunner struct {
	path      string
	maxOutput int
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures an ExecRunner.
type Option func(*ExecRunner)

// WithMaxOutput sets the stdout limit in bytes. Values below one keep
// DefaultMaxOutput.
func WithMaxOutput(n int) Option {
	return func(r *ExecRunner) {
		if n > 0 {
			r.maxOutput = n
		}
	}
}

// WithTimeout bounds each command. Zero means only the caller's context applies.
func WithTimeout(d time.Duration) Option {
	return func(r *ExecRunner) {
		r.timeout = d
	}
}

// WithLogger sets the logger used for command tracing.
func WithLogger(l *slog.Logger) Option {
	return func(r *ExecRunner) {
		r.logger = l
	}
}

// NewExecRunner creates a runner for the adb binary at path ("adb" resolves via PATH).
func NewExecRunner(path string, opts ...Option) *ExecRunner {
	if path == "" {
		path = "adb"
	}
	r := &ExecRunner{
		path:      path,
		maxOutput: DefaultMaxOutput,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	command := strings.Join(args, " ")
	start := time.Now()

	stdout := &limitedBuffer{limit: r.maxOutput}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.path, args...)
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	r.logger.Debug("adb command finished",
		"command", command,
		"bytes", stdout.written,
		"duration", time.Since(start))

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("adb %s: %w", command, ctxErr)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("adb %s: %w: %s", command, err, msg)
		}
		return "", fmt.Errorf("adb %s: %w", command, err)
	}
	if stderr.Len() > 0 {
		msg := strings.TrimSpace(stderr.String())
		r.logger.Warn("adb stderr", "command", command, "stderr", msg)
		return "", fmt.Errorf("adb %s: %w: %s", command, ErrStderr, msg)
	}
	if stdout.overflow {
		return "", fmt.Errorf("adb %s: %w (%d bytes)", command, ErrOutputTooLarge, r.maxOutput)
	}
	return stdout.String(), nil
}

// limitedBuffer keeps at most limit bytes and drains the rest, so a chatty
// child never blocks on a full pipe.
type limitedBuffer struct {
	buf      bytes.Buffer
	limit    int
	written  int
	overflow bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.written += len(p)
	if b.overflow {
		return len(p), nil
	}
	if room := max(b.limit-b.buf.Len(), 0); len(p) > room {
		b.buf.Write(p[:room])
		b.overflow = true
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *limitedBuffer) String() string {
	return b.buf.String()
}
