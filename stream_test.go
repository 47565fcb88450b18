package termux

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reading struct {
	N int `json:"n"`
}

func shStream(script string) Invocation {
	return Invocation{"sh", "-c", script}
}

// helperStream starts a tool that prints one value and exits while a
// background helper keeps its stdout open. The helper creates marker if it
// lives for two seconds.
func helperStream(t *testing.T, c *Client, marker string) *Stream[reading] {
	t.Helper()
	s, err := Open[reading](t.Context(), c, Invocation{"sh", "-c", `(sleep 2; touch "$0") 2>/dev/null & echo '{"n":1}'`, marker})
	require.NoError(t, err)

	v, err := s.Next()
	require.NoError(t, err)
	require.Equal(t, 1, v.N)

	select {
	case <-s.proc.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("tool did not exit")
	}
	return s
}

// requireHelperGone waits past the helper's deadline and checks that it
// never got to create marker.
func requireHelperGone(t *testing.T, marker string) {
	t.Helper()
	time.Sleep(3 * time.Second)
	_, err := os.Stat(marker)
	require.ErrorIs(t, err, os.ErrNotExist, "helper process survived")
}

// collect drains s until it ends and returns the values and final error.
func collect[T any](t *testing.T, s *Stream[T]) ([]T, error) {
	t.Helper()
	var out []T
	for {
		v, err := s.Next()
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
}

// ---------------------------------------------------------------------------
// Completion
// ---------------------------------------------------------------------------

func TestStreamCompletes(t *testing.T) {
	requireShell(t)

	c := New()
	s, err := Open[reading](t.Context(), c, shStream(`echo '{"n":1}'; echo '{"n":2}'; echo '{"n":3}'`))
	require.NoError(t, err)
	assert.Equal(t, StateStreaming, s.State())
	assert.NotEmpty(t, s.ID())

	got, err := collect(t, s)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []reading{{1}, {2}, {3}}, got)
	assert.Equal(t, StateCompleted, s.State())
	assert.Equal(t, 0, c.Registry().Len())

	// Terminal streams keep returning the same result.
	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamMultiLineDocuments(t *testing.T) {
	requireShell(t)

	script := `printf '{\n  "n": 1\n}\n'; printf '{"n":\n2}\n'`
	s, err := Open[reading](t.Context(), New(), shStream(script))
	require.NoError(t, err)

	got, err := collect(t, s)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []reading{{1}, {2}}, got)
}

func TestStreamGenericValues(t *testing.T) {
	requireShell(t)

	s, err := Open[map[string]any](t.Context(), New(), shStream(`echo '{"accel": {"values": [0.1, 9.8]}}'`))
	require.NoError(t, err)

	got, err := collect(t, s)
	require.ErrorIs(t, err, io.EOF)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "accel")
}

func TestStreamNoOutput(t *testing.T) {
	requireShell(t)

	s, err := Open[reading](t.Context(), New(), shStream(`exit 0`))
	require.NoError(t, err)

	got, err := collect(t, s)
	require.ErrorIs(t, err, io.EOF)
	assert.Empty(t, got)
}

func TestStreamLeftoverOutput(t *testing.T) {
	requireShell(t)

	s, err := Open[reading](t.Context(), New(), shStream(`echo '{"n":1}'; printf '{"n":'`))
	require.NoError(t, err)

	got, err := collect(t, s)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []reading{{1}}, got)
	assert.Equal(t, StateCompleted, s.State())
}

// ---------------------------------------------------------------------------
// Failure
// ---------------------------------------------------------------------------

func TestStreamNonZeroExit(t *testing.T) {
	requireShell(t)

	c := New()
	s, err := Open[reading](t.Context(), c, shStream(`echo '{"n":1}'; echo denied >&2; exit 2`))
	require.NoError(t, err)

	got, err := collect(t, s)
	var ee *ExitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 2, ee.Code)
	assert.Equal(t, "denied\n", ee.Stderr)
	assert.Equal(t, []reading{{1}}, got)
	assert.Equal(t, StateFailed, s.State())
	assert.Equal(t, 0, c.Registry().Len())
}

func TestStreamTypeMismatch(t *testing.T) {
	requireShell(t)

	c := New()
	s, err := Open[reading](t.Context(), c, shStream(`echo '{"n":"one"}'; sleep 10`))
	require.NoError(t, err)

	start := time.Now()
	_, err = s.Next()
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.JSONEq(t, `{"n":"one"}`, string(pe.Raw))
	assert.Equal(t, StateFailed, s.State())
	assert.Equal(t, 0, c.Registry().Len())
	assert.Less(t, time.Since(start), 3*time.Second)

	_, again := s.Next()
	assert.Same(t, err, again)
}

func TestStreamStartFailure(t *testing.T) {
	c := New()
	_, err := Open[reading](t.Context(), c, Invocation{"termux-definitely-not-installed"})
	require.ErrorIs(t, err, ErrToolNotFound)
	assert.Equal(t, 0, c.Registry().Len())
}

// ---------------------------------------------------------------------------
// Cancellation
// ---------------------------------------------------------------------------

func TestStreamCancel(t *testing.T) {
	requireShell(t)

	c := New()
	s, err := Open[reading](t.Context(), c, shStream(`echo '{"n":1}'; sleep 10; echo '{"n":2}'; echo '{"n":3}'`))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Registry().Len())

	v, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, v.N)

	start := time.Now()
	s.Cancel()
	assert.Less(t, time.Since(start), 3*time.Second)

	assert.Equal(t, StateCancelled, s.State())
	assert.Equal(t, 0, c.Registry().Len())

	_, err = s.Next()
	assert.ErrorIs(t, err, ErrCancelled)

	// Idempotent.
	s.Cancel()
	assert.Equal(t, StateCancelled, s.State())
}

func TestStreamCancelKillsHelpers(t *testing.T) {
	requireShell(t)

	c := New()
	marker := filepath.Join(t.TempDir(), "helper-alive")
	s := helperStream(t, c, marker)

	s.Cancel()
	assert.Equal(t, StateCancelled, s.State())
	assert.Equal(t, 0, c.Registry().Len())

	_, err := s.Next()
	assert.ErrorIs(t, err, ErrCancelled)
	requireHelperGone(t, marker)
}

func TestStreamCancelWhileBlocked(t *testing.T) {
	requireShell(t)

	c := New()
	s, err := Open[reading](t.Context(), c, shStream(`sleep 10`))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.Next()
		done <- err
	}()

	time.Sleep(100 * time.Millisecond)
	s.Cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrCancelled)
	case <-time.After(3 * time.Second):
		t.Fatal("Next did not return after Cancel")
	}
	assert.Equal(t, 0, c.Registry().Len())
}

func TestStreamCancelAfterCompletion(t *testing.T) {
	requireShell(t)

	s, err := Open[reading](t.Context(), New(), shStream(`echo '{"n":1}'`))
	require.NoError(t, err)

	_, err = collect(t, s)
	require.ErrorIs(t, err, io.EOF)

	s.Cancel()
	assert.Equal(t, StateCompleted, s.State())
}

func TestStreamContextCancel(t *testing.T) {
	requireShell(t)

	c := New()
	ctx, cancel := context.WithCancel(t.Context())
	s, err := Open[reading](ctx, c, shStream(`while true; do echo '{"n":1}'; sleep 0.05; done`))
	require.NoError(t, err)

	_, err = s.Next()
	require.NoError(t, err)

	cancel()
	require.Eventually(t, func() bool {
		return s.State() == StateCancelled && c.Registry().Len() == 0
	}, 3*time.Second, 10*time.Millisecond)

	// Values already buffered may still be read; the stream ends cancelled.
	var last error
	for range 100 {
		if _, last = s.Next(); last != nil {
			break
		}
	}
	assert.ErrorIs(t, last, ErrCancelled)
}

func TestStreamEventsBreakCancels(t *testing.T) {
	requireShell(t)

	c := New()
	s, err := Open[reading](t.Context(), c, shStream(`i=0; while true; do i=$((i+1)); echo "{\"n\":$i}"; sleep 0.02; done`))
	require.NoError(t, err)

	var got []int
	for v, err := range s.Events() {
		require.NoError(t, err)
		got = append(got, v.N)
		if len(got) == 3 {
			break
		}
	}

	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, StateCancelled, s.State())
	assert.Equal(t, 0, c.Registry().Len())
}

func TestStreamEventsEnds(t *testing.T) {
	requireShell(t)

	s, err := Open[reading](t.Context(), New(), shStream(`echo '{"n":1}'; echo '{"n":2}'`))
	require.NoError(t, err)

	var got []int
	for v, err := range s.Events() {
		require.NoError(t, err)
		got = append(got, v.N)
	}
	assert.Equal(t, []int{1, 2}, got)
}

func TestStreamEventsDeliversError(t *testing.T) {
	requireShell(t)

	s, err := Open[reading](t.Context(), New(), shStream(`echo '{"n":1}'; exit 5`))
	require.NoError(t, err)

	var last error
	n := 0
	for _, err := range s.Events() {
		if err != nil {
			last = err
			continue
		}
		n++
	}
	assert.Equal(t, 1, n)
	code, ok := ExitCode(last)
	assert.True(t, ok)
	assert.Equal(t, 5, code)
}

func TestStreamHooks(t *testing.T) {
	requireShell(t)

	var (
		mu     sync.Mutex
		events []any
		exits  []int
	)
	c := New(WithHooks(&Hooks{
		OnEvent: func(id string, e any) {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		},
		OnExit: func(_ Invocation, code int, _ time.Duration) {
			mu.Lock()
			exits = append(exits, code)
			mu.Unlock()
		},
	}))

	s, err := Open[reading](t.Context(), c, shStream(`echo '{"n":1}'; echo '{"n":2}'`))
	require.NoError(t, err)
	_, err = collect(t, s)
	require.ErrorIs(t, err, io.EOF)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []any{reading{1}, reading{2}}, events)
	assert.Equal(t, []int{0}, exits)
}

func TestStreamStateString(t *testing.T) {
	assert.Equal(t, "starting", StateStarting.String())
	assert.Equal(t, "streaming", StateStreaming.String())
	assert.Equal(t, "completed", StateCompleted.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "cancelled", StateCancelled.String())
	assert.Equal(t, "StreamState(42)", StreamState(42).String())
}
