package termux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxStderr bounds how much standard error a long-lived process keeps.
const maxStderr = 64 * 1024

// LocalTransport runs the external tool as a child of this program.
//
// The zero value is ready to use and inherits the parent environment.
type LocalTransport struct {
	// Dir sets the working directory. Empty means the current directory.
	Dir string

	// Env adds environment variables on top of the inherited environment.
	Env map[string]string
}

var _ Transport = (*LocalTransport)(nil)

// Run executes inv to completion and captures its output. When ctx ends
// first the whole process group is killed.
func (t *LocalTransport) Run(ctx context.Context, inv Invocation) (*Output, error) {
	path, err := lookupTool(inv)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, path, inv[1:]...)
	cmd.Dir = t.Dir
	cmd.Env = t.environ()
	cmd.WaitDelay = time.Second
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		return killTree(cmd.Process)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) && !errors.Is(err, exec.ErrWaitDelay) {
			return nil, &StartError{Args: inv, Err: err}
		}
	}

	return &Output{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}, nil
}

// Start spawns inv in its own process group so Kill also reaches any
// helper processes the tool starts. ctx only bounds the spawn itself; the
// process lives until it exits or is killed.
func (t *LocalTransport) Start(ctx context.Context, inv Invocation, opts StartOptions) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := lookupTool(inv)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(path, inv[1:]...)
	cmd.Dir = t.Dir
	cmd.Env = t.environ()
	cmd.WaitDelay = time.Second
	setProcessGroup(cmd)

	// A plain pipe instead of StdoutPipe: Wait must not close the read
	// end while output is still buffered in it.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, &StartError{Args: inv, Err: fmt.Errorf("stdout pipe: %w", err)}
	}
	cmd.Stdout = stdoutW

	stderr := &cappedBuffer{limit: maxStderr}
	cmd.Stderr = stderr

	var stdin io.WriteCloser
	if opts.Stdin {
		stdin, err = cmd.StdinPipe()
		if err != nil {
			stdoutR.Close()
			stdoutW.Close()
			return nil, &StartError{Args: inv, Err: fmt.Errorf("stdin pipe: %w", err)}
		}
	}

	if err := cmd.Start(); err != nil {
		stdoutR.Close()
		stdoutW.Close()
		return nil, &StartError{Args: inv, Err: err}
	}
	stdoutW.Close()

	p := &localProcess{
		id:     uuid.NewString(),
		args:   inv,
		cmd:    cmd,
		stdout: stdoutR,
		stdin:  stdin,
		stderr: stderr,
		done:   make(chan struct{}),
	}
	go p.reap()
	return p, nil
}

func (t *LocalTransport) environ() []string {
	env := os.Environ()
	keys := make([]string, 0, len(t.Env))
	for k := range t.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+t.Env[k])
	}
	return env
}

func lookupTool(inv Invocation) (string, error) {
	if len(inv) == 0 {
		return "", &StartError{Args: inv, Err: errors.New("empty invocation")}
	}
	path, err := exec.LookPath(inv[0])
	if err != nil {
		return "", &StartError{Args: inv, Err: fmt.Errorf("%w: %s", ErrToolNotFound, inv[0])}
	}
	return path, nil
}

// localProcess implements Process for a child of this program.
type localProcess struct {
	id     string
	args   Invocation
	cmd    *exec.Cmd
	stdout *os.File
	stdin  io.WriteCloser
	stderr *cappedBuffer

	done    chan struct{}
	code    int
	waitErr error
}

var _ Process = (*localProcess)(nil)

func (p *localProcess) ID() string { return p.id }
func (p *localProcess) PID() int { return p.cmd.Process.Pid }
func (p *localProcess) Args() Invocation { return p.args }
func (p *localProcess) Stdout() io.ReadCloser { return p.stdout }
func (p *localProcess) Stdin() io.WriteCloser { return p.stdin }
func (p *localProcess) Done() <-chan struct{} { return p.done }

// Kill sends SIGKILL to the process group, then to the process itself in
// case it left the group. The group is signalled even when the process has
// already exited: helpers it started may still be holding stdout.
func (p *localProcess) Kill() error {
	groupErr := killProcessGroup(p.cmd.Process.Pid)
	select {
	case <-p.done:
		return groupErr
	default:
	}
	return errors.Join(signalProcess(p.cmd.Process, os.Kill), groupErr)
}

func (p *localProcess) Wait() (int, string, error) {
	<-p.done
	return p.code, p.stderr.String(), p.waitErr
}

// reap waits for the process so it never lingers as a zombie. The read
// end of stdout stays open for the consumer to drain and close.
func (p *localProcess) reap() {
	err := p.cmd.Wait()
	p.code = p.cmd.ProcessState.ExitCode()

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) && !errors.Is(err, exec.ErrWaitDelay) {
		p.waitErr = err
	}
	close(p.done)
}

// killTree kills the group led by proc and proc itself.
func killTree(proc *os.Process) error {
	if proc == nil {
		return nil
	}
	groupErr := killProcessGroup(proc.Pid)
	return errors.Join(signalProcess(proc, os.Kill), groupErr)
}

// signalProcess sends sig to a process, returning nil if the process
// has already exited (os.ErrProcessDone).
func signalProcess(proc *os.Process, sig os.Signal) error {
	err := proc.Signal(sig)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// cappedBuffer keeps the first limit bytes written to it.
type cappedBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
