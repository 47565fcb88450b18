package termux

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Speaker feeds lines of text to a long-lived process over standard
// input, the way termux-tts-speak reads one utterance per line when it is
// started without a text argument.
//
// Speaker is safe for concurrent use.
type Speaker struct {
	client  *Client
	proc    Process
	stdin   io.WriteCloser
	logger  zerolog.Logger
	started time.Time
	drained chan struct{}

	mu     sync.Mutex
	closed bool
}

// OpenSpeaker starts inv with standard input attached and registers it
// with the client's registry.
func OpenSpeaker(ctx context.Context, c *Client, inv Invocation) (*Speaker, error) {
	c.hooks.invokeStart(inv)

	proc, err := c.transport.Start(ctx, inv, StartOptions{Stdin: true})
	if err != nil {
		c.hooks.invokeError(err)
		return nil, err
	}
	if err := c.registry.Register(proc); err != nil {
		_ = proc.Stdout().Close()
		c.hooks.invokeError(err)
		return nil, err
	}

	sp := &Speaker{
		client:  c,
		proc:    proc,
		stdin:   proc.Stdin(),
		logger:  c.logger.With().Str("speaker", proc.ID()).Str("command", inv.String()).Logger(),
		started: time.Now(),
		drained: make(chan struct{}),
	}

	// Nothing useful is printed, but a full pipe would stall the tool.
	go func() {
		_, _ = io.Copy(io.Discard, proc.Stdout())
		close(sp.drained)
	}()

	sp.logger.Debug().Int("pid", proc.PID()).Msg("speaker started")
	return sp, nil
}

// Speak queues text for the process. Line breaks inside text are turned
// into spaces so one call is one utterance.
func (sp *Speaker) Speak(text string) error {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.closed {
		return ErrSpeakerClosed
	}

	line := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text) + "\n"
	if _, err := io.WriteString(sp.stdin, line); err != nil {
		err = fmt.Errorf("termux: speak: %w", err)
		sp.client.hooks.invokeError(err)
		return err
	}
	return nil
}

// Close ends the input, waits for the process to finish speaking and
// removes it from the registry. A non-zero exit yields *ExitError. Calling
// Close again returns ErrSpeakerClosed.
func (sp *Speaker) Close() error {
	sp.mu.Lock()
	if sp.closed {
		sp.mu.Unlock()
		return ErrSpeakerClosed
	}
	sp.closed = true
	sp.mu.Unlock()

	_ = sp.stdin.Close()
	code, stderr, waitErr := sp.proc.Wait()
	<-sp.drained
	_ = sp.proc.Stdout().Close()
	sp.client.registry.Deregister(sp.proc)

	duration := time.Since(sp.started)
	sp.logger.Debug().Int("code", code).Dur("duration", duration).Msg("speaker closed")
	sp.client.hooks.invokeExit(sp.proc.Args(), code, duration)

	var err error
	switch {
	case waitErr != nil:
		err = fmt.Errorf("termux: wait %s: %w", commandName(sp.proc.Args()), waitErr)
	case code != 0:
		err = &ExitError{Args: sp.proc.Args(), Code: code, Stderr: stderr}
	}
	if err != nil {
		sp.client.hooks.invokeError(err)
	}
	return err
}
