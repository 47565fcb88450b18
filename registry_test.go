package termux

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProcess is a Process that exits when killed.
type fakeProcess struct {
	id      string
	kills   atomic.Int32
	killErr error
	once    sync.Once
	done    chan struct{}
}

func newFakeProcess(id string) *fakeProcess {
	return &fakeProcess{id: id, done: make(chan struct{})}
}

func (p *fakeProcess) ID() string { return p.id }
func (p *fakeProcess) PID() int { return 0 }
func (p *fakeProcess) Args() Invocation { return Invocation{"fake", p.id} }
func (p *fakeProcess) Stdout() io.ReadCloser { return io.NopCloser(nil) }
func (p *fakeProcess) Stdin() io.WriteCloser { return nil }
func (p *fakeProcess) Done() <-chan struct{} { return p.done }
func (p *fakeProcess) Wait() (int, string, error) {
	<-p.done
	return -1, "", nil
}

func (p *fakeProcess) Kill() error {
	p.kills.Add(1)
	if p.killErr != nil {
		return p.killErr
	}
	p.once.Do(func() { close(p.done) })
	return nil
}

// ---------------------------------------------------------------------------
// Registration
// ---------------------------------------------------------------------------

func TestRegistryRegisterDeregister(t *testing.T) {
	r := NewRegistry()
	a, b := newFakeProcess("a"), newFakeProcess("b")

	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))
	assert.Equal(t, 2, r.Len())
	assert.True(t, r.Contains(a))

	r.Deregister(a)
	assert.Equal(t, 1, r.Len())
	assert.False(t, r.Contains(a))

	// Unknown processes are ignored.
	r.Deregister(a)
	r.Deregister(newFakeProcess("c"))
	assert.Equal(t, 1, r.Len())
}

func TestRegistryConcurrentUse(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := newFakeProcess(fmt.Sprintf("p%d", i))
			assert.NoError(t, r.Register(p))
			r.Contains(p)
			r.Deregister(p)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, r.Len())
}

// ---------------------------------------------------------------------------
// KillAll
// ---------------------------------------------------------------------------

func TestRegistryKillAll(t *testing.T) {
	r := NewRegistry()
	procs := []*fakeProcess{newFakeProcess("a"), newFakeProcess("b"), newFakeProcess("c")}
	for _, p := range procs {
		require.NoError(t, r.Register(p))
	}

	require.NoError(t, r.KillAll())
	assert.Equal(t, 0, r.Len())
	for _, p := range procs {
		assert.Equal(t, int32(1), p.kills.Load(), p.id)
		select {
		case <-p.Done():
		default:
			t.Errorf("%s still running", p.id)
		}
	}

	// A second sweep finds nothing and kills nothing.
	require.NoError(t, r.KillAll())
	for _, p := range procs {
		assert.Equal(t, int32(1), p.kills.Load(), p.id)
	}
}

func TestRegistryConcurrentKillAll(t *testing.T) {
	r := NewRegistry()
	procs := make([]*fakeProcess, 20)
	for i := range procs {
		procs[i] = newFakeProcess(fmt.Sprintf("p%d", i))
		require.NoError(t, r.Register(procs[i]))
	}

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.KillAll())
		}()
	}
	wg.Wait()

	for _, p := range procs {
		assert.Equal(t, int32(1), p.kills.Load(), p.id)
	}
}

func TestRegistryKillAllReportsErrors(t *testing.T) {
	r := NewRegistry()
	bad := newFakeProcess("bad")
	bad.killErr = errors.New("permission denied")
	good := newFakeProcess("good")
	require.NoError(t, r.Register(bad))
	require.NoError(t, r.Register(good))

	err := r.KillAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, int32(1), good.kills.Load())
}

func TestRegistryKillAllRealProcesses(t *testing.T) {
	requireShell(t)

	c := New()
	var streams []*Stream[reading]
	for range 3 {
		s, err := Open[reading](t.Context(), c, Invocation{"sleep", "30"})
		require.NoError(t, err)
		streams = append(streams, s)
	}
	assert.Equal(t, 3, c.Registry().Len())

	start := time.Now()
	require.NoError(t, c.Registry().KillAll())
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.Equal(t, 0, c.Registry().Len())

	for _, s := range streams {
		select {
		case <-s.proc.Done():
		default:
			t.Error("process still running after KillAll")
		}
		_, err := s.Next()
		assert.Error(t, err)
	}
}

func TestRegistryKillAllKillsHelpers(t *testing.T) {
	requireShell(t)

	c := New()
	marker := filepath.Join(t.TempDir(), "helper-alive")
	s := helperStream(t, c, marker)
	require.Equal(t, 1, c.Registry().Len())

	require.NoError(t, c.Registry().KillAll())
	assert.Equal(t, 0, c.Registry().Len())
	requireHelperGone(t, marker)

	// With the helper gone the pipe closes and the stream can finish.
	_, err := s.Next()
	assert.ErrorIs(t, err, io.EOF)
}

// ---------------------------------------------------------------------------
// Shutdown
// ---------------------------------------------------------------------------

func TestRegistryShutdown(t *testing.T) {
	r := NewRegistry()
	a := newFakeProcess("a")
	require.NoError(t, r.Register(a))

	require.NoError(t, r.Shutdown())
	assert.Equal(t, int32(1), a.kills.Load())

	late := newFakeProcess("late")
	err := r.Register(late)
	require.ErrorIs(t, err, ErrRegistryClosed)
	assert.Equal(t, int32(1), late.kills.Load(), "late process must be killed")
	assert.Equal(t, 0, r.Len())

	require.NoError(t, r.Shutdown())
}

func TestClientOpenAfterClose(t *testing.T) {
	requireShell(t)

	c := New()
	require.NoError(t, c.Close())

	_, err := Open[reading](t.Context(), c, Invocation{"sleep", "30"})
	require.ErrorIs(t, err, ErrRegistryClosed)
}
