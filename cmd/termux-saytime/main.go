// Command termux-saytime speaks the current time in Chinese.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	termux "github.com/MateoSegura/termuxapi-go"
	"github.com/MateoSegura/termuxapi-go/api"
	"github.com/MateoSegura/termuxapi-go/internal/cli"
	"github.com/MateoSegura/termuxapi-go/internal/saytime"
)

const (
	musicStream = "music"

	noMaxVolumeFlagName        = "no-max-volume"
	noMaxVolumeFlagDescription = "speak at the current volume instead of raising it"
	printOnlyFlagName          = "print-only"
	printOnlyFlagDescription   = "print the phrase without speaking it"
)

// speaker is the part of api.Device the announcer uses.
type speaker interface {
	Volume(ctx context.Context, stream string) (api.VolumeStream, bool, error)
	SetVolume(ctx context.Context, stream string, volume int) error
	TTSSpeak(ctx context.Context, text string, v api.Voice, opts ...termux.RunOption) error
}

type announcement struct {
	phrase    string
	maxVolume bool
	voice     api.Voice
	timeout   time.Duration
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		cli.Fail(err)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	var noMaxVolume, printOnly bool

	cmd := &cobra.Command{
		Use:          "termux-saytime",
		Short:        "Speak the current time in Chinese",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			phrase := saytime.At(time.Now())
			fmt.Fprintln(cmd.OutOrStdout(), phrase)
			if printOnly {
				return nil
			}

			env, err := cli.Setup("termux-saytime", configPath)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx, stop := env.Context(cmd.Context())
			defer stop()

			return announce(ctx, env.Device, announcement{
				phrase:    phrase,
				maxVolume: env.Config.SayTime.MaxVolume && !noMaxVolume,
				voice:     api.Voice{Stream: env.Config.SayTime.Stream},
				timeout:   env.Config.SayTime.Timeout,
			}, env.Logger)
		},
	}

	cli.AddConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&noMaxVolume, noMaxVolumeFlagName, false, noMaxVolumeFlagDescription)
	cmd.Flags().BoolVar(&printOnly, printOnlyFlagName, false, printOnlyFlagDescription)
	return cmd
}

// announce speaks a.phrase. With maxVolume the music stream is raised to
// its maximum first and restored afterwards, even when speaking fails.
func announce(ctx context.Context, s speaker, a announcement, logger zerolog.Logger) error {
	if a.maxVolume {
		vol, ok, err := s.Volume(ctx, musicStream)
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("read volume, speaking at current level")
		case !ok:
			logger.Warn().Msg("no music stream, speaking at current level")
		default:
			if err := s.SetVolume(ctx, musicStream, vol.MaxVolume); err != nil {
				logger.Warn().Err(err).Msg("raise volume")
			}
			defer restoreVolume(ctx, s, vol.Volume, logger)
		}
	}

	if err := s.TTSSpeak(ctx, a.phrase, a.voice, termux.WithCallTimeout(a.timeout)); err != nil {
		return fmt.Errorf("speak %q: %w", a.phrase, err)
	}
	return nil
}

func restoreVolume(ctx context.Context, s speaker, volume int, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.SetVolume(ctx, musicStream, volume); err != nil {
		logger.Error().Err(err).Int("volume", volume).Msg("restore volume")
	}
}
