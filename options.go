package termux

import (
	"time"

	"github.com/rs/zerolog"
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTransport sets how invocations reach the external tool.
// The default is a LocalTransport.
func WithTransport(t Transport) ClientOption {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithRegistry makes the client track long-lived processes in r instead
// of a registry of its own. A shared registry is not shut down by
// Client.Close; its owner is responsible for that.
func WithRegistry(r *Registry) ClientOption {
	return func(c *Client) {
		if r != nil {
			c.registry = r
			c.ownsRegistry = false
		}
	}
}

// WithLogger sets the logger for spawn, exit and kill events.
// The default discards everything.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout bounds every one-shot call. Zero disables the bound.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHooks installs observability callbacks.
func WithHooks(h *Hooks) ClientOption {
	return func(c *Client) {
		c.hooks = h
	}
}

// RunOption configures a single one-shot call.
type RunOption func(*runConfig)

type runConfig struct {
	timeout time.Duration
}

// WithCallTimeout overrides the client's timeout for one call.
// Zero disables the bound for that call.
func WithCallTimeout(d time.Duration) RunOption {
	return func(rc *runConfig) {
		rc.timeout = d
	}
}

// Hooks provides optional callbacks for observability.
// All callbacks are optional. Callbacks for a stream run on the goroutine
// consuming it; those for one-shot calls run on the caller's goroutine.
type Hooks struct {
	// OnStart is called when an invocation is handed to the transport.
	OnStart func(inv Invocation)

	// OnExit is called when a process exits on its own.
	// code is the exit code, duration is the total runtime.
	OnExit func(inv Invocation, code int, duration time.Duration)

	// OnError is called for every error returned to the caller.
	OnError func(error)

	// OnEvent is called for every value a stream emits.
	OnEvent func(streamID string, event any)
}

func (h *Hooks) invokeStart(inv Invocation) {
	if h != nil && h.OnStart != nil {
		h.OnStart(inv)
	}
}

func (h *Hooks) invokeExit(inv Invocation, code int, duration time.Duration) {
	if h != nil && h.OnExit != nil {
		h.OnExit(inv, code, duration)
	}
}

func (h *Hooks) invokeError(err error) {
	if h != nil && h.OnError != nil {
		h.OnError(err)
	}
}

func (h *Hooks) invokeEvent(streamID string, event any) {
	if h != nil && h.OnEvent != nil {
		h.OnEvent(streamID, event)
	}
}
