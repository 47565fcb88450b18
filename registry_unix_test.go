//go:build !windows

package termux

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Signals
// ---------------------------------------------------------------------------

func TestRegistryWatchSignals(t *testing.T) {
	r := NewRegistry()
	p := newFakeProcess("a")
	require.NoError(t, r.Register(p))

	got := make(chan os.Signal, 1)
	stop := r.WatchSignals(t.Context(), func(sig os.Signal) { got <- sig })
	defer stop()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGHUP))

	select {
	case sig := <-got:
		assert.Equal(t, syscall.SIGHUP, sig)
	case <-time.After(3 * time.Second):
		t.Fatal("signal not delivered")
	}
	assert.Equal(t, int32(1), p.kills.Load())
	assert.ErrorIs(t, r.Register(newFakeProcess("b")), ErrRegistryClosed)
}

func TestRegistryWatchSignalsStop(t *testing.T) {
	r := NewRegistry()
	stop := r.WatchSignals(t.Context(), func(os.Signal) {
		t.Error("handler called after stop")
	})
	stop()
	stop()

	require.NoError(t, r.Register(newFakeProcess("a")))
	assert.Equal(t, 1, r.Len())
}
