package termux

import (
	"context"
	"io"
)

// Output is what a one-shot run captured from the external tool.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// StartOptions configures a long-lived process.
type StartOptions struct {
	// Stdin attaches a writable pipe to the process's standard input.
	// When false the process reads from an empty input.
	Stdin bool
}

// Transport carries invocations to the external tool.
//
// Run executes a one-shot invocation to completion. It returns a non-nil
// Output whenever the program ran, even if it exited non-zero; the error
// is reserved for failures to run at all (missing binary, broken
// connection, context done).
//
// Start spawns a long-lived process. The returned Process is running and
// must eventually be killed or observed to exit via Wait.
type Transport interface {
	Run(ctx context.Context, inv Invocation) (*Output, error)
	Start(ctx context.Context, inv Invocation, opts StartOptions) (Process, error)
}

// Process is a handle to a long-lived external process.
//
// Implementations reap the process in the background: Done is closed once
// the process has terminated and Wait no longer blocks.
type Process interface {
	// ID identifies the process for the lifetime of the program.
	ID() string

	// PID returns the operating-system process ID, or 0 when unknown
	// (for example on a remote transport).
	PID() int

	// Args returns the invocation the process was started with.
	Args() Invocation

	// Stdout is the process's standard output. Reads return io.EOF once
	// the process and any helpers it spawned have closed it. The consumer
	// closes it when done reading.
	Stdout() io.ReadCloser

	// Stdin is the process's standard input, or nil when not requested.
	Stdin() io.WriteCloser

	// Kill forcibly terminates the process. Killing an exited process
	// is not an error.
	Kill() error

	// Wait blocks until the process exits and returns its exit code and
	// captured standard error. A process terminated by a signal reports
	// code -1.
	Wait() (code int, stderr string, err error)

	// Done is closed once the process has exited.
	Done() <-chan struct{}
}
