package termux

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func writeTestKey(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path
}

func TestSSHEndpointAddress(t *testing.T) {
	key := writeTestKey(t)

	tests := []struct {
		name string
		host string
		port string
		want string
	}{
		{name: "default port", host: "192.168.1.20", want: "192.168.1.20:8022"},
		{name: "explicit port", host: "phone.lan", port: "2222", want: "phone.lan:2222"},
		{name: "port in host", host: "phone.lan:22", want: "phone.lan:22"},
		{name: "ipv6", host: "::1", want: "[::1]:8022"},
		{name: "trimmed", host: " phone.lan ", want: "phone.lan:8022"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &SSHTransport{Host: tt.host, Port: tt.port, User: "u0_a123", KeyPath: key, InsecureSkipHostKeyChecking: true}
			addr, _, err := tr.endpoint()
			require.NoError(t, err)
			assert.Equal(t, tt.want, addr)
		})
	}
}

func TestSSHEndpointConfig(t *testing.T) {
	key := writeTestKey(t)

	knownHosts := filepath.Join(t.TempDir(), "known_hosts")
	require.NoError(t, os.WriteFile(knownHosts, nil, 0o600))

	tests := []struct {
		name    string
		tr      SSHTransport
		wantErr []string
	}{
		{name: "missing host", tr: SSHTransport{Host: "  ", User: "u0_a123", KeyPath: key}, wantErr: []string{"host"}},
		{name: "missing user", tr: SSHTransport{Host: "phone.lan", KeyPath: key}, wantErr: []string{"user"}},
		{name: "missing key", tr: SSHTransport{Host: "phone.lan", User: "u0_a123"}, wantErr: []string{"key path"}},
		{name: "all missing", tr: SSHTransport{}, wantErr: []string{"host", "user", "key path"}},
		{name: "unreadable key", tr: SSHTransport{Host: "phone.lan", User: "u0_a123", KeyPath: filepath.Join(t.TempDir(), "nope")}, wantErr: []string{"no such file"}},
		{name: "unreadable known hosts", tr: SSHTransport{Host: "phone.lan", User: "u0_a123", KeyPath: key, KnownHostsPath: filepath.Join(t.TempDir(), "nope")}, wantErr: []string{"known hosts"}},
		{name: "insecure", tr: SSHTransport{Host: "phone.lan", User: "u0_a123", KeyPath: key, InsecureSkipHostKeyChecking: true}},
		{name: "known hosts", tr: SSHTransport{Host: "phone.lan", User: "u0_a123", KeyPath: key, KnownHostsPath: knownHosts}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cfg, err := tt.tr.endpoint()
			if len(tt.wantErr) > 0 {
				require.Error(t, err)
				for _, want := range tt.wantErr {
					assert.Contains(t, err.Error(), want)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u0_a123", cfg.User)
			assert.Len(t, cfg.Auth, 1)
			assert.NotNil(t, cfg.HostKeyCallback)
		})
	}
}

func TestSSHDialHonoursContext(t *testing.T) {
	tr := &SSHTransport{Host: "192.0.2.1", User: "u0_a123", KeyPath: writeTestKey(t), InsecureSkipHostKeyChecking: true}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := tr.Run(ctx, Invocation{"termux-battery-status"})
	var se *StartError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSSHRunWithoutHost(t *testing.T) {
	tr := &SSHTransport{User: "u0_a123"}

	_, err := tr.Run(t.Context(), Invocation{"termux-battery-status"})
	var se *StartError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, err.Error(), "host")

	_, err = tr.Start(t.Context(), Invocation{"termux-sensor", "-a"}, StartOptions{})
	assert.ErrorAs(t, err, &se)

	assert.NoError(t, tr.Close())
}

func TestSSHEmptyInvocation(t *testing.T) {
	_, err := (&SSHTransport{}).Run(t.Context(), nil)
	var se *StartError
	assert.ErrorAs(t, err, &se)
}

func TestSSHExitCode(t *testing.T) {
	code, err := sshExitCode(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	code, err = sshExitCode(&ssh.ExitMissingError{})
	require.NoError(t, err)
	assert.Equal(t, -1, code)

	_, err = sshExitCode(os.ErrClosed)
	assert.ErrorIs(t, err, os.ErrClosed)
}
