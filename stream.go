package termux

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// StreamState is the lifecycle stage of a Stream.
type StreamState int

const (
	StateStarting StreamState = iota
	StateStreaming
	StateCompleted
	StateFailed
	StateCancelled
)

func (s StreamState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("StreamState(%d)", int(s))
	}
}

func (s StreamState) terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Stream is a lazy sequence of JSON values decoded from a long-lived
// process. Output has no framing: lines are accumulated until the buffer
// holds one complete JSON document, which is decoded and emitted, and the
// buffer starts over. A document may therefore span several lines.
//
// A Stream is consumed from one goroutine. Cancel may be called from any
// goroutine. The sequence cannot be restarted.
type Stream[T any] struct {
	id      string
	client  *Client
	proc    Process
	reader  *bufio.Reader
	buf     []byte
	logger  zerolog.Logger
	started time.Time

	stopWatch func() bool

	mu    sync.Mutex
	state StreamState
	err   error
}

// Open starts inv as a long-lived process, registers it with the client's
// registry and returns the stream of its decoded output.
//
// When ctx ends the stream is cancelled. Cancellation always kills the
// process; the external tool has no way to be asked to stop.
func Open[T any](ctx context.Context, c *Client, inv Invocation) (*Stream[T], error) {
	c.hooks.invokeStart(inv)

	proc, err := c.transport.Start(ctx, inv, StartOptions{})
	if err != nil {
		c.hooks.invokeError(err)
		return nil, err
	}

	s := &Stream[T]{
		id:      proc.ID(),
		client:  c,
		proc:    proc,
		reader:  bufio.NewReader(proc.Stdout()),
		started: time.Now(),
		state:   StateStarting,
	}
	s.logger = c.logger.With().Str("stream", s.id).Str("command", inv.String()).Logger()

	if err := c.registry.Register(proc); err != nil {
		_ = proc.Stdout().Close()
		c.hooks.invokeError(err)
		return nil, err
	}

	s.logger.Debug().Int("pid", proc.PID()).Msg("stream started")

	s.mu.Lock()
	s.state = StateStreaming
	s.stopWatch = context.AfterFunc(ctx, s.Cancel)
	s.mu.Unlock()
	return s, nil
}

// ID identifies the stream and its process in logs.
func (s *Stream[T]) ID() string { return s.id }

// State returns the current lifecycle stage.
func (s *Stream[T]) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Next blocks until the next value is decoded.
//
// It returns io.EOF once the process has exited with status 0. A non-zero
// exit yields *ExitError, a complete document that does not fit T yields
// *ParseError, and a cancelled stream yields ErrCancelled. After any error
// every further call returns the same error.
func (s *Stream[T]) Next() (T, error) {
	var zero T

	s.mu.Lock()
	if s.state.terminal() {
		err := s.err
		s.mu.Unlock()
		return zero, err
	}
	s.mu.Unlock()

	for {
		line, readErr := s.reader.ReadBytes('\n')
		if len(line) > 0 {
			s.buf = append(s.buf, line...)
			if json.Valid(s.buf) {
				raw := s.buf
				s.buf = nil

				var v T
				if err := json.Unmarshal(raw, &v); err != nil {
					return zero, s.fail(&ParseError{Raw: raw, Err: err})
				}
				s.client.hooks.invokeEvent(s.id, v)
				return v, nil
			}
		}

		if readErr == nil {
			continue
		}
		if s.State() == StateCancelled {
			return zero, ErrCancelled
		}
		if !errors.Is(readErr, io.EOF) && !errors.Is(readErr, io.ErrClosedPipe) {
			return zero, s.fail(fmt.Errorf("termux: read %s: %w", commandName(s.proc.Args()), readErr))
		}
		return zero, s.complete()
	}
}

// Events adapts the stream to a range-over-func sequence. Breaking out of
// the loop cancels the stream. Clean completion ends the sequence without
// an error; any other ending is delivered as a final (zero, err) pair.
func (s *Stream[T]) Events() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			v, err := s.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(v, err)
				return
			}
			if !yield(v, nil) {
				s.Cancel()
				return
			}
		}
	}
}

// Cancel kills the process, waits until it is gone and removes it from the
// registry. Calling Cancel on a finished stream does nothing.
func (s *Stream[T]) Cancel() {
	s.mu.Lock()
	if s.state.terminal() {
		s.mu.Unlock()
		return
	}
	s.state = StateCancelled
	s.err = ErrCancelled
	s.mu.Unlock()

	s.release(true)
	s.logger.Debug().Dur("duration", time.Since(s.started)).Msg("stream cancelled")
}

// complete finishes a stream whose output has ended.
func (s *Stream[T]) complete() error {
	code, stderr, waitErr := s.release(false)
	duration := time.Since(s.started)

	if rest := bytes.TrimSpace(s.buf); len(rest) > 0 {
		s.logger.Warn().Bytes("leftover", rest).Msg("discarding undecodable output")
	}
	s.buf = nil

	var err error
	state := StateCompleted
	switch {
	case waitErr != nil:
		state = StateFailed
		err = fmt.Errorf("termux: wait %s: %w", commandName(s.proc.Args()), waitErr)
	case code != 0:
		state = StateFailed
		err = &ExitError{Args: s.proc.Args(), Code: code, Stderr: stderr}
	default:
		err = io.EOF
	}

	if !s.settle(state, err) {
		return ErrCancelled
	}
	s.client.hooks.invokeExit(s.proc.Args(), code, duration)
	s.logger.Debug().Int("code", code).Dur("duration", duration).Str("state", state.String()).Msg("stream ended")
	if state == StateFailed {
		s.client.hooks.invokeError(err)
	}
	return err
}

// fail ends a still-running stream with err.
func (s *Stream[T]) fail(err error) error {
	if !s.settle(StateFailed, err) {
		return ErrCancelled
	}
	s.release(true)
	s.logger.Debug().Err(err).Msg("stream failed")
	s.client.hooks.invokeError(err)
	return err
}

// settle records the terminal state unless Cancel got there first.
func (s *Stream[T]) settle(state StreamState, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.terminal() {
		return false
	}
	s.state = state
	s.err = err
	return true
}

// release stops watching the context, optionally kills the process, and
// deregisters it once it has exited.
func (s *Stream[T]) release(kill bool) (int, string, error) {
	s.mu.Lock()
	stop := s.stopWatch
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
	if kill {
		if err := s.proc.Kill(); err != nil {
			s.logger.Error().Err(err).Msg("kill failed")
		}
	}
	_ = s.proc.Stdout().Close()
	code, stderr, err := s.proc.Wait()
	s.client.registry.Deregister(s.proc)
	return code, stderr, err
}
