// Command termux-torch blinks the flashlight until interrupted.
package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/MateoSegura/termuxapi-go/internal/cli"
)

const (
	onFlagName         = "on"
	offFlagName        = "off"
	onFlagDescription  = "how long the torch stays on (default from config, 800ms)"
	offFlagDescription = "how long the torch stays off (default from config, 500ms)"
)

// torch is the part of api.Device the blinker uses.
type torch interface {
	Torch(ctx context.Context, on bool) error
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		cli.Fail(err)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	var on, off time.Duration

	cmd := &cobra.Command{
		Use:          "termux-torch",
		Short:        "Blink the flashlight until interrupted",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.Setup("termux-torch", configPath)
			if err != nil {
				return err
			}
			defer env.Close()

			if cmd.Flags().Changed(onFlagName) {
				env.Config.Torch.On = on
			}
			if cmd.Flags().Changed(offFlagName) {
				env.Config.Torch.Off = off
			}

			ctx, stop := env.Context(cmd.Context())
			defer stop()

			return blink(ctx, env.Device, env.Config.Torch.On, env.Config.Torch.Off, cmd.OutOrStdout(), env.Logger)
		},
	}

	cli.AddConfigFlag(cmd, &configPath)
	cmd.Flags().DurationVar(&on, onFlagName, 0, onFlagDescription)
	cmd.Flags().DurationVar(&off, offFlagName, 0, offFlagDescription)
	return cmd
}

// blink toggles the torch until ctx ends, then switches it off. Failed
// toggles are logged and the cycle goes on.
func blink(ctx context.Context, t torch, on, off time.Duration, out io.Writer, logger zerolog.Logger) error {
	for ctx.Err() == nil {
		toggle(ctx, t, true, out, logger)
		sleep(ctx, on)
		toggle(ctx, t, false, out, logger)
		sleep(ctx, off)
	}

	offCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := t.Torch(offCtx, false); err != nil {
		return fmt.Errorf("switch torch off: %w", err)
	}
	fmt.Fprintln(out, "\r Closed")
	return nil
}

func toggle(ctx context.Context, t torch, on bool, out io.Writer, logger zerolog.Logger) {
	label := "\r Off "
	if on {
		label = "\r On  "
	}
	if err := t.Torch(ctx, on); err != nil {
		if ctx.Err() == nil {
			logger.Error().Err(err).Bool("on", on).Msg("toggle torch")
		}
		return
	}
	fmt.Fprint(out, label)
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
