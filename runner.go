package termux

import (
	"context"
	"errors"
	"time"
)

// Run executes inv to completion and returns its standard output.
//
// A non-zero exit yields *ExitError carrying the exit code and standard
// error. When the call's timeout elapses the tool is killed and
// *TimeoutError is returned; when ctx itself ends, ctx's error is returned.
// The process has always been reaped by the time Run returns.
func (c *Client) Run(ctx context.Context, inv Invocation, opts ...RunOption) (string, error) {
	rc := runConfig{timeout: c.timeout}
	for _, opt := range opts {
		opt(&rc)
	}

	runCtx := ctx
	if rc.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, rc.timeout)
		defer cancel()
	}

	logger := c.logger.With().Str("command", inv.String()).Logger()
	logger.Debug().Msg("run")
	c.hooks.invokeStart(inv)

	start := time.Now()
	out, err := c.transport.Run(runCtx, inv)
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			err = &TimeoutError{Args: inv, Timeout: rc.timeout}
		}
		logger.Debug().Err(err).Dur("duration", duration).Msg("run failed")
		c.hooks.invokeError(err)
		return "", err
	}

	logger.Debug().Int("code", out.ExitCode).Dur("duration", duration).Msg("exited")
	c.hooks.invokeExit(inv, out.ExitCode, duration)

	if out.ExitCode != 0 {
		err := &ExitError{Args: inv, Code: out.ExitCode, Stderr: out.Stderr}
		c.hooks.invokeError(err)
		return "", err
	}
	return out.Stdout, nil
}
