// Package config loads settings for the command-line tools from a YAML or
// TOML file and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	termux "github.com/MateoSegura/termuxapi-go"
	"github.com/MateoSegura/termuxapi-go/internal/logging"
)

// Transport names.
const (
	TransportLocal = "local"
	TransportSSH   = "ssh"
)

// Environment overrides, applied after the file.
const (
	EnvTransport   = "TERMUX_TRANSPORT"
	EnvTimeout     = "TERMUX_TIMEOUT"
	EnvSSHHost     = "TERMUX_SSH_HOST"
	EnvSSHPort     = "TERMUX_SSH_PORT"
	EnvSSHUser     = "TERMUX_SSH_USER"
	EnvSSHKey      = "TERMUX_SSH_KEY"
	EnvKnownHosts  = "TERMUX_SSH_KNOWN_HOSTS"
	EnvSSHInsecure = "TERMUX_SSH_INSECURE"
)

// Config is the complete tool configuration.
type Config struct {
	Transport string        `yaml:"transport" toml:"transport"`
	Timeout   time.Duration `yaml:"timeout" toml:"timeout"`
	SSH       SSH           `yaml:"ssh" toml:"ssh"`
	Log       Log           `yaml:"log" toml:"log"`
	Torch     Torch         `yaml:"torch" toml:"torch"`
	SayTime   SayTime       `yaml:"saytime" toml:"saytime"`
	Recorder  Recorder      `yaml:"recorder" toml:"recorder"`
}

// SSH describes how to reach a device running Termux's sshd.
type SSH struct {
	Host           string        `yaml:"host" toml:"host"`
	Port           string        `yaml:"port" toml:"port"`
	User           string        `yaml:"user" toml:"user"`
	KeyPath        string        `yaml:"key_path" toml:"key_path"`
	KnownHostsPath string        `yaml:"known_hosts_path" toml:"known_hosts_path"`
	Insecure       bool          `yaml:"insecure_skip_host_key_checking" toml:"insecure_skip_host_key_checking"`
	DialTimeout    time.Duration `yaml:"dial_timeout" toml:"dial_timeout"`
}

// Log configures the tools' console logger.
type Log struct {
	Level     string `yaml:"level" toml:"level"`
	Timestamp bool   `yaml:"timestamp" toml:"timestamp"`
	NoColor   bool   `yaml:"no_color" toml:"no_color"`
}

// Torch configures termux-torch.
type Torch struct {
	On  time.Duration `yaml:"on" toml:"on"`
	Off time.Duration `yaml:"off" toml:"off"`
}

// SayTime configures termux-saytime.
type SayTime struct {
	MaxVolume bool          `yaml:"max_volume" toml:"max_volume"`
	Stream    string        `yaml:"stream" toml:"stream"`
	Timeout   time.Duration `yaml:"timeout" toml:"timeout"`
}

// Recorder configures termux-volrec.
type Recorder struct {
	SaveDir      string        `yaml:"save_dir" toml:"save_dir"`
	BlankMedia   string        `yaml:"blank_media" toml:"blank_media"`
	FileName     string        `yaml:"file_name" toml:"file_name"`
	Encoder      string        `yaml:"encoder" toml:"encoder"`
	Bitrate      int           `yaml:"bitrate" toml:"bitrate"`
	SampleRate   int           `yaml:"sample_rate" toml:"sample_rate"`
	ChannelCount int           `yaml:"channel_count" toml:"channel_count"`
	PollInterval time.Duration `yaml:"poll_interval" toml:"poll_interval"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Transport: TransportLocal,
		Timeout:   30 * time.Second,
		SSH: SSH{
			Port:        "8022",
			DialTimeout: 10 * time.Second,
		},
		Log: Log{
			Level:     "info",
			Timestamp: true,
		},
		Torch: Torch{
			On:  800 * time.Millisecond,
			Off: 500 * time.Millisecond,
		},
		SayTime: SayTime{
			MaxVolume: true,
			Timeout:   20 * time.Second,
		},
		Recorder: Recorder{
			FileName:     "rec_20060102_150405.m4a",
			Encoder:      "aac",
			Bitrate:      128,
			SampleRate:   44100,
			ChannelCount: 2,
		},
	}
}

// Load reads path on top of Default, picking the format from the file
// extension, then applies environment overrides. An empty path skips the
// file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing config YAML: %w", err)
			}
		case ".toml":
			if _, err := toml.Decode(string(data), &cfg); err != nil {
				return nil, fmt.Errorf("parsing config TOML: %w", err)
			}
		default:
			return nil, fmt.Errorf("unsupported config format %q", ext)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvTransport)); v != "" {
		c.Transport = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	if v := strings.TrimSpace(os.Getenv(EnvSSHHost)); v != "" {
		c.SSH.Host = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSSHPort)); v != "" {
		c.SSH.Port = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSSHUser)); v != "" {
		c.SSH.User = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSSHKey)); v != "" {
		c.SSH.KeyPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvKnownHosts)); v != "" {
		c.SSH.KnownHostsPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSSHInsecure)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvSSHInsecure, err)
		}
		c.SSH.Insecure = b
	}
	return nil
}

// Validate checks the settings every tool relies on and reports all
// problems at once.
func (c *Config) Validate() error {
	var errs []string

	switch c.Transport {
	case TransportLocal:
	case TransportSSH:
		if c.SSH.Host == "" {
			errs = append(errs, "ssh.host is required for the ssh transport")
		}
		if c.SSH.User == "" {
			errs = append(errs, "ssh.user is required for the ssh transport")
		}
		if c.SSH.KeyPath == "" {
			errs = append(errs, "ssh.key_path is required for the ssh transport")
		}
	case "":
		errs = append(errs, "transport is required")
	default:
		errs = append(errs, "invalid transport "+c.Transport)
	}

	if c.Timeout < 0 {
		errs = append(errs, "timeout must not be negative")
	}
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		errs = append(errs, "invalid log.level "+c.Log.Level)
	}
	if c.Torch.On <= 0 || c.Torch.Off <= 0 {
		errs = append(errs, "torch.on and torch.off must be positive")
	}
	if c.Recorder.PollInterval < 0 {
		errs = append(errs, "recorder.poll_interval must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// Logging returns the logger settings: the file's values overridden by
// the TERMUX_LOG_* variables.
func (c *Config) Logging() logging.Config {
	lc := logging.DefaultConfig(logging.ProfileRuntime)
	if lvl, ok := logging.ParseLevel(c.Log.Level); ok {
		lc.Level = lvl
	}
	lc.Timestamp = c.Log.Timestamp
	lc.NoColor = c.Log.NoColor
	logging.ApplyEnv(&lc)
	return lc
}

// NewTransport builds the transport the configuration selects.
func (c *Config) NewTransport() termux.Transport {
	if c.Transport == TransportSSH {
		return &termux.SSHTransport{
			Host:                        c.SSH.Host,
			Port:                        c.SSH.Port,
			User:                        c.SSH.User,
			KeyPath:                     c.SSH.KeyPath,
			KnownHostsPath:              c.SSH.KnownHostsPath,
			InsecureSkipHostKeyChecking: c.SSH.Insecure,
			Timeout:                     c.SSH.DialTimeout,
		}
	}
	return &termux.LocalTransport{}
}
