package termux

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for common failure modes.
var (
	// ErrToolNotFound indicates the external tool binary is not in PATH.
	ErrToolNotFound = errors.New("termux: tool not found in PATH")

	// ErrTimeout indicates a one-shot call exceeded its deadline.
	// Match with errors.Is; the concrete error is *TimeoutError.
	ErrTimeout = errors.New("termux: command timed out")

	// ErrCancelled indicates the consumer terminated a stream before it
	// completed on its own.
	ErrCancelled = errors.New("termux: stream cancelled")

	// ErrUnmatched indicates a prefix or pattern interpreter found nothing
	// it recognised in the output. It is neither a success nor a failure.
	// Match with errors.Is; the concrete error is *UnmatchedError.
	ErrUnmatched = errors.New("termux: output not recognised")

	// ErrRegistryClosed indicates a process was registered after Shutdown.
	ErrRegistryClosed = errors.New("termux: process registry closed")

	// ErrSpeakerClosed indicates Speak was called after Close.
	ErrSpeakerClosed = errors.New("termux: speaker closed")
)

// ExitError reports an external tool that exited with a non-zero status.
type ExitError struct {
	Args   []string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr != "" {
		return fmt.Sprintf("termux: %s: exit code %d: %s", commandName(e.Args), e.Code, stderr)
	}
	return fmt.Sprintf("termux: %s: exit code %d", commandName(e.Args), e.Code)
}

// ParseError wraps a payload that could not be decoded.
// Raw holds the exact bytes that were rejected.
type ParseError struct {
	Raw []byte
	Err error
}

func (e *ParseError) Error() string {
	truncated := string(e.Raw)
	if len(truncated) > 100 {
		truncated = truncated[:100] + "..."
	}
	return fmt.Sprintf("termux: parse error: %v (output: %q)", e.Err, truncated)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ToolError is a failure the external tool printed on stdout while still
// exiting with status 0.
type ToolError struct {
	Message string
}

func (e *ToolError) Error() string {
	return "termux: tool reported: " + strings.TrimSpace(e.Message)
}

// UnmatchedError carries the output an interpreter could not place.
type UnmatchedError struct {
	Output string
}

func (e *UnmatchedError) Error() string {
	out := strings.TrimSpace(e.Output)
	if len(out) > 100 {
		out = out[:100] + "..."
	}
	return fmt.Sprintf("%v: %q", ErrUnmatched, out)
}

func (e *UnmatchedError) Is(target error) bool {
	return target == ErrUnmatched
}

// TimeoutError reports a one-shot call that was interrupted by its deadline.
type TimeoutError struct {
	Args    []string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%v: %s after %s", ErrTimeout, commandName(e.Args), e.Timeout)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// StartError wraps failures while spawning the external tool.
type StartError struct {
	Args []string
	Err  error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("termux: start %s failed: %v", commandName(e.Args), e.Err)
}

func (e *StartError) Unwrap() error {
	return e.Err
}

// ExitCode extracts the exit code from an error chain containing *ExitError.
// Returns (0, false) if the error does not contain an ExitError.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

func commandName(args []string) string {
	if len(args) == 0 {
		return "<empty>"
	}
	return args[0]
}
