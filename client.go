package termux

import (
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Client invokes the external tool. It pairs a Transport with the Registry
// that tracks the long-lived processes it starts.
//
// A Client is safe for concurrent use.
type Client struct {
	transport    Transport
	registry     *Registry
	ownsRegistry bool
	logger       zerolog.Logger
	timeout      time.Duration
	hooks        *Hooks
}

// New creates a Client. Without options it runs commands locally, with no
// timeout, and owns a fresh Registry.
func New(opts ...ClientOption) *Client {
	c := &Client{
		transport:    &LocalTransport{},
		registry:     NewRegistry(),
		ownsRegistry: true,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ownsRegistry {
		c.registry.WithLogger(c.logger)
	}
	return c
}

// Transport returns the transport the client runs commands through.
func (c *Client) Transport() Transport { return c.transport }

// Registry returns the registry tracking the client's long-lived processes.
func (c *Client) Registry() *Registry { return c.registry }

// Logger returns the client's logger.
func (c *Client) Logger() zerolog.Logger { return c.logger }

// Close kills every long-lived process the client still owns and releases
// the transport's connection, if it holds one.
func (c *Client) Close() error {
	var errs []error
	if c.ownsRegistry {
		if err := c.registry.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	if closer, ok := c.transport.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
