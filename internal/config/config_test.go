package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	termux "github.com/MateoSegura/termuxapi-go"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, TransportLocal, cfg.Transport)
	assert.Equal(t, 800*time.Millisecond, cfg.Torch.On)
	assert.Equal(t, 500*time.Millisecond, cfg.Torch.Off)
	assert.Equal(t, "8022", cfg.SSH.Port)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "termux.yaml", `
transport: ssh
timeout: 5s
ssh:
  host: phone.lan
  user: u0_a123
  key_path: /keys/id_ed25519
torch:
  on: 200ms
recorder:
  save_dir: /sdcard/rec
  bitrate: 96
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, TransportSSH, cfg.Transport)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "phone.lan", cfg.SSH.Host)
	assert.Equal(t, "8022", cfg.SSH.Port, "unset keys keep their defaults")
	assert.Equal(t, 200*time.Millisecond, cfg.Torch.On)
	assert.Equal(t, 500*time.Millisecond, cfg.Torch.Off)
	assert.Equal(t, "/sdcard/rec", cfg.Recorder.SaveDir)
	assert.Equal(t, 96, cfg.Recorder.Bitrate)
	assert.Equal(t, "aac", cfg.Recorder.Encoder)
	require.NoError(t, cfg.Validate())

	_, ok := cfg.NewTransport().(*termux.SSHTransport)
	assert.True(t, ok)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "termux.toml", `
transport = "local"
timeout = "45s"

[log]
level = "debug"
no_color = true

[saytime]
max_volume = false
stream = "MUSIC"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.SayTime.MaxVolume)
	assert.Equal(t, "MUSIC", cfg.SayTime.Stream)
	assert.Equal(t, 20*time.Second, cfg.SayTime.Timeout)

	lc := cfg.Logging()
	assert.Equal(t, zerolog.DebugLevel, lc.Level)
	assert.True(t, lc.NoColor)

	_, ok := cfg.NewTransport().(*termux.LocalTransport)
	assert.True(t, ok)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "reading config file")
	})

	t.Run("unknown extension", func(t *testing.T) {
		_, err := Load(writeFile(t, "termux.json", "{}"))
		assert.ErrorContains(t, err, "unsupported config format")
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "termux.yml", "timeout: [oops"))
		assert.ErrorContains(t, err, "parsing config YAML")
	})

	t.Run("bad toml", func(t *testing.T) {
		_, err := Load(writeFile(t, "termux.toml", "timeout = "))
		assert.ErrorContains(t, err, "parsing config TOML")
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvTransport, "SSH")
	t.Setenv(EnvSSHHost, "10.0.0.7")
	t.Setenv(EnvSSHUser, "termux")
	t.Setenv(EnvSSHKey, "/k")
	t.Setenv(EnvSSHInsecure, "true")
	t.Setenv(EnvTimeout, "2s")

	cfg, err := Load(writeFile(t, "termux.yaml", "ssh:\n  host: from-file\n"))
	require.NoError(t, err)

	assert.Equal(t, TransportSSH, cfg.Transport)
	assert.Equal(t, "10.0.0.7", cfg.SSH.Host)
	assert.True(t, cfg.SSH.Insecure)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestEnvOverrideInvalid(t *testing.T) {
	t.Setenv(EnvTimeout, "soon")
	_, err := Load("")
	assert.ErrorContains(t, err, EnvTimeout)
}

func TestValidateAccumulates(t *testing.T) {
	cfg := Default()
	cfg.Transport = TransportSSH
	cfg.Log.Level = "loud"
	cfg.Torch.Off = 0

	err := cfg.Validate()
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "ssh.host is required")
	assert.Contains(t, msg, "ssh.user is required")
	assert.Contains(t, msg, "ssh.key_path is required")
	assert.Contains(t, msg, "invalid log.level loud")
	assert.Contains(t, msg, "torch.on and torch.off must be positive")
}

func TestValidateUnknownTransport(t *testing.T) {
	cfg := Default()
	cfg.Transport = "adb"
	assert.ErrorContains(t, cfg.Validate(), "invalid transport adb")
}
