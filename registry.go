package termux

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Registry tracks every long-lived process spawned through it so none can
// outlive the program.
//
// A process leaves the registry either through Deregister, once its owner
// has seen it terminate, or through KillAll, which kills it exactly once.
// Registry is safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	procs  map[string]Process
	closed bool
	logger zerolog.Logger
}

// NewRegistry creates an empty, open registry.
func NewRegistry() *Registry {
	return &Registry{
		procs:  make(map[string]Process),
		logger: zerolog.Nop(),
	}
}

// WithLogger sets the logger used for kill and signal events.
func (r *Registry) WithLogger(logger zerolog.Logger) *Registry {
	r.mu.Lock()
	r.logger = logger
	r.mu.Unlock()
	return r
}

// Register starts tracking p. After Shutdown, p is killed immediately and
// ErrRegistryClosed is returned.
func (r *Registry) Register(p Process) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		if err := p.Kill(); err == nil {
			<-p.Done()
		}
		return ErrRegistryClosed
	}
	r.procs[p.ID()] = p
	r.mu.Unlock()
	return nil
}

// Deregister stops tracking p. Unknown processes are ignored.
func (r *Registry) Deregister(p Process) {
	r.mu.Lock()
	delete(r.procs, p.ID())
	r.mu.Unlock()
}

// Contains reports whether p is currently tracked.
func (r *Registry) Contains(p Process) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.procs[p.ID()]
	return ok
}

// Len returns the number of tracked processes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.procs)
}

// KillAll kills every tracked process and waits until each has exited.
// Processes are detached under the lock first, so concurrent sweeps never
// kill the same process twice. Calling KillAll on an empty registry is a
// no-op.
func (r *Registry) KillAll() error {
	r.mu.Lock()
	procs := r.procs
	r.procs = make(map[string]Process)
	logger := r.logger
	r.mu.Unlock()

	var g errgroup.Group
	for _, p := range procs {
		g.Go(func() error {
			logger.Info().Str("process", p.ID()).Int("pid", p.PID()).Str("command", p.Args().String()).Msg("killing process")
			if err := p.Kill(); err != nil {
				logger.Error().Err(err).Str("process", p.ID()).Msg("kill failed")
				return fmt.Errorf("kill %s (%s): %w", p.ID(), commandName(p.Args()), err)
			}
			<-p.Done()
			return nil
		})
	}
	return g.Wait()
}

// Shutdown closes the registry to new processes and kills the tracked
// ones. It is safe to call more than once.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return r.KillAll()
}

// WatchSignals runs Shutdown when the program receives SIGINT, SIGTERM or
// SIGHUP, then calls onSignal. A nil onSignal exits with status 128+signal.
// The watch ends when ctx is done or stop is called.
func (r *Registry) WatchSignals(ctx context.Context, onSignal func(os.Signal)) (stop func()) {
	if onSignal == nil {
		onSignal = exitOnSignal
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	stopCh := make(chan struct{})
	var once sync.Once
	stop = func() {
		once.Do(func() {
			signal.Stop(sigCh)
			close(stopCh)
		})
	}

	go func() {
		select {
		case sig := <-sigCh:
			r.mu.Lock()
			logger := r.logger
			r.mu.Unlock()
			logger.Warn().Str("signal", sig.String()).Msg("shutting down child processes")
			if err := r.Shutdown(); err != nil {
				logger.Error().Err(err).Msg("shutdown")
			}
			stop()
			onSignal(sig)
		case <-ctx.Done():
			stop()
		case <-stopCh:
		}
	}()

	return stop
}

func exitOnSignal(sig os.Signal) {
	code := 1
	if s, ok := sig.(syscall.Signal); ok {
		code = 128 + int(s)
	}
	os.Exit(code)
}
