// Package cli holds the start-up sequence shared by the command-line
// tools: configuration, logging, client and signal handling.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	termux "github.com/MateoSegura/termuxapi-go"
	"github.com/MateoSegura/termuxapi-go/api"
	"github.com/MateoSegura/termuxapi-go/internal/config"
	"github.com/MateoSegura/termuxapi-go/internal/logging"
)

const (
	configFlagName        = "config"
	configFlagShorthand   = "c"
	configFlagDescription = "path to a YAML or TOML config file"
)

// Env is what a tool needs to talk to the device.
type Env struct {
	Config *config.Config
	Logger zerolog.Logger
	Client *termux.Client
	Device *api.Device
}

// AddConfigFlag registers the shared --config flag on cmd.
func AddConfigFlag(cmd *cobra.Command, path *string) {
	cmd.Flags().StringVarP(path, configFlagName, configFlagShorthand, "", configFlagDescription)
}

// Setup loads and validates the configuration at configPath and builds
// the logger and client from it.
func Setup(app, configPath string) (*Env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.New(app, cfg.Logging(), os.Stderr)
	client := termux.New(
		termux.WithTransport(cfg.NewTransport()),
		termux.WithLogger(logger),
		termux.WithTimeout(cfg.Timeout),
	)

	return &Env{
		Config: cfg,
		Logger: logger,
		Client: client,
		Device: api.New(client),
	}, nil
}

// Context derives a context that is cancelled when the program is
// interrupted. Before cancelling, every long-lived process the client
// started is killed, so cleanup code sees no stragglers.
func (e *Env) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stopWatch := e.Client.Registry().WatchSignals(ctx, func(sig os.Signal) {
		e.Logger.Info().Str("signal", sig.String()).Msg("interrupted")
		cancel()
	})
	return ctx, func() {
		stopWatch()
		cancel()
	}
}

// Close releases the client.
func (e *Env) Close() {
	if err := e.Client.Close(); err != nil {
		e.Logger.Warn().Err(err).Msg("close client")
	}
}

// Fail prints err the way every tool reports a fatal error.
func Fail(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
