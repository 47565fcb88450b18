package termux

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHTransport runs the external tool on a remote device through its SSH
// server, typically Termux's sshd on port 8022.
//
// One connection is dialed lazily and shared by all calls; every
// invocation gets its own SSH session.
type SSHTransport struct {
	Host                        string
	Port                        string
	User                        string
	KeyPath                     string
	Passphrase                  []byte
	KnownHostsPath              string
	InsecureSkipHostKeyChecking bool
	Timeout                     time.Duration

	mu     sync.Mutex
	client *ssh.Client
}

var _ Transport = (*SSHTransport)(nil)

// Run executes inv remotely and captures its output. When ctx ends first
// the remote command is sent SIGKILL and its session closed.
func (t *SSHTransport) Run(ctx context.Context, inv Invocation) (*Output, error) {
	if len(inv) == 0 {
		return nil, &StartError{Args: inv, Err: errors.New("empty invocation")}
	}
	session, err := t.newSession(ctx)
	if err != nil {
		return nil, &StartError{Args: inv, Err: err}
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	if err := session.Start(inv.String()); err != nil {
		return nil, &StartError{Args: inv, Err: err}
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- session.Wait() }()

	select {
	case err := <-waitCh:
		code, err := sshExitCode(err)
		if err != nil {
			return nil, &StartError{Args: inv, Err: err}
		}
		return &Output{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: code}, nil
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		<-waitCh
		return nil, ctx.Err()
	}
}

// Start spawns inv remotely as a long-lived session.
func (t *SSHTransport) Start(ctx context.Context, inv Invocation, opts StartOptions) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(inv) == 0 {
		return nil, &StartError{Args: inv, Err: errors.New("empty invocation")}
	}
	session, err := t.newSession(ctx)
	if err != nil {
		return nil, &StartError{Args: inv, Err: err}
	}

	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, &StartError{Args: inv, Err: fmt.Errorf("stdout pipe: %w", err)}
	}
	stderr := &cappedBuffer{limit: maxStderr}
	session.Stderr = stderr

	var stdin io.WriteCloser
	if opts.Stdin {
		stdin, err = session.StdinPipe()
		if err != nil {
			session.Close()
			return nil, &StartError{Args: inv, Err: fmt.Errorf("stdin pipe: %w", err)}
		}
	}

	if err := session.Start(inv.String()); err != nil {
		session.Close()
		return nil, &StartError{Args: inv, Err: err}
	}

	p := &sshProcess{
		id:      uuid.NewString(),
		args:    inv,
		session: session,
		stdout:  io.NopCloser(stdout),
		stdin:   stdin,
		stderr:  stderr,
		done:    make(chan struct{}),
	}
	go p.reap()
	return p, nil
}

// Close tears down the shared connection.
func (t *SSHTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

// newSession opens a session on the shared connection. The connection is
// dialed on first use and redialed once if the cached one has gone away.
func (t *SSHTransport) newSession(ctx context.Context) (*ssh.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client != nil {
		session, err := t.client.NewSession()
		if err == nil {
			return session, nil
		}
		t.client.Close()
		t.client = nil
	}

	addr, cfg, err := t.endpoint()
	if err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: t.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	t.client = ssh.NewClient(sshConn, chans, reqs)
	return t.client.NewSession()
}

// endpoint resolves the dial address and client configuration. Every
// missing setting is reported at once. Host may carry its own port; Port,
// when set, takes precedence, and 8022 is the fallback.
func (t *SSHTransport) endpoint() (string, *ssh.ClientConfig, error) {
	host := strings.TrimSpace(t.Host)
	var missing []error
	if host == "" {
		missing = append(missing, errors.New("ssh host is required"))
	}
	if t.User == "" {
		missing = append(missing, errors.New("ssh user is required"))
	}
	if t.KeyPath == "" {
		missing = append(missing, errors.New("ssh key path is required"))
	}
	if err := errors.Join(missing...); err != nil {
		return "", nil, err
	}

	addr := net.JoinHostPort(host, cmp.Or(t.Port, "8022"))
	if _, _, err := net.SplitHostPort(host); err == nil && t.Port == "" {
		addr = host
	}

	pem, err := os.ReadFile(t.KeyPath)
	if err != nil {
		return "", nil, fmt.Errorf("read ssh key: %w", err)
	}
	var signer ssh.Signer
	if len(t.Passphrase) > 0 {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(pem, t.Passphrase)
	} else {
		signer, err = ssh.ParsePrivateKey(pem)
	}
	if err != nil {
		return "", nil, fmt.Errorf("parse ssh key %s: %w", t.KeyPath, err)
	}

	hostKeys := ssh.InsecureIgnoreHostKey()
	if !t.InsecureSkipHostKeyChecking {
		path := strings.TrimSpace(t.KnownHostsPath)
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", nil, fmt.Errorf("known hosts path not set: %w", err)
			}
			path = filepath.Join(home, ".ssh", "known_hosts")
		}
		if hostKeys, err = knownhosts.New(path); err != nil {
			return "", nil, fmt.Errorf("load known hosts: %w", err)
		}
	}

	return addr, &ssh.ClientConfig{
		User:            t.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeys,
		Timeout:         t.Timeout,
	}, nil
}

// sshExitCode maps a session.Wait error to an exit code. Remote commands
// killed by a signal, or whose status never arrived, report -1.
func sshExitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Signal() != "" {
			return -1, nil
		}
		return exitErr.ExitStatus(), nil
	}
	var missing *ssh.ExitMissingError
	if errors.As(err, &missing) {
		return -1, nil
	}
	return 0, err
}

// sshProcess implements Process for a remote SSH session.
type sshProcess struct {
	id      string
	args    Invocation
	session *ssh.Session
	stdout  io.ReadCloser
	stdin   io.WriteCloser
	stderr  *cappedBuffer

	done    chan struct{}
	code    int
	waitErr error
}

var _ Process = (*sshProcess)(nil)

func (p *sshProcess) ID() string { return p.id }
func (p *sshProcess) PID() int { return 0 }
func (p *sshProcess) Args() Invocation { return p.args }
func (p *sshProcess) Stdout() io.ReadCloser { return p.stdout }
func (p *sshProcess) Stdin() io.WriteCloser { return p.stdin }
func (p *sshProcess) Done() <-chan struct{} { return p.done }

// Kill signals the remote command and closes its session. Closing the
// channel makes sshd hang up on the command even when the server ignores
// signal requests.
func (p *sshProcess) Kill() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	_ = p.session.Signal(ssh.SIGKILL)
	err := p.session.Close()
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (p *sshProcess) Wait() (int, string, error) {
	<-p.done
	return p.code, p.stderr.String(), p.waitErr
}

func (p *sshProcess) reap() {
	p.code, p.waitErr = sshExitCode(p.session.Wait())
	_ = p.session.Close()
	close(p.done)
}
