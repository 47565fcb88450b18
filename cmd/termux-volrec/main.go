// Command termux-volrec starts and stops microphone recording with the
// volume buttons, which keep working while the screen is off.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MateoSegura/termuxapi-go/internal/cli"
	"github.com/MateoSegura/termuxapi-go/internal/config"
	"github.com/MateoSegura/termuxapi-go/internal/recorder"
)

const (
	saveDirFlagName        = "save-dir"
	saveDirFlagDescription = "directory on the device for recordings"
	blankFlagName          = "blank-media"
	blankFlagDescription   = "long silent track that keeps the music stream active"
	strictFlagName         = "strict"
	strictFlagDescription  = "exit if the silent track or volume pin cannot be set up"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		cli.Fail(err)
	}
}

func newRootCommand() *cobra.Command {
	var configPath, saveDir, blank string
	var strict bool

	cmd := &cobra.Command{
		Use:          "termux-volrec",
		Short:        "Toggle microphone recording with the volume buttons",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.Setup("termux-volrec", configPath)
			if err != nil {
				return err
			}
			defer env.Close()

			rc := env.Config.Recorder
			if cmd.Flags().Changed(saveDirFlagName) {
				rc.SaveDir = saveDir
			}
			if cmd.Flags().Changed(blankFlagName) {
				rc.BlankMedia = blank
			}
			if err := checkRecorder(rc); err != nil {
				return err
			}

			ctx, stop := env.Context(cmd.Context())
			defer stop()

			fmt.Fprintln(cmd.OutOrStdout(), "Recorder controlled by volume button")
			fmt.Fprintln(cmd.OutOrStdout(), "Save at:", rc.SaveDir)

			rec := recorder.New(env.Device, options(rc), env.Logger)
			if err := rec.Setup(ctx); err != nil {
				if strict {
					return err
				}
				env.Logger.Warn().Err(err).Msg("setup incomplete, running anyway")
			}
			return rec.Run(ctx)
		},
	}

	cli.AddConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&saveDir, saveDirFlagName, "", saveDirFlagDescription)
	cmd.Flags().StringVar(&blank, blankFlagName, "", blankFlagDescription)
	cmd.Flags().BoolVar(&strict, strictFlagName, false, strictFlagDescription)
	return cmd
}

func checkRecorder(rc config.Recorder) error {
	if rc.SaveDir == "" {
		return fmt.Errorf("recorder.save_dir or --%s is required", saveDirFlagName)
	}
	if rc.BlankMedia == "" {
		return fmt.Errorf("recorder.blank_media or --%s is required", blankFlagName)
	}
	return nil
}

func options(rc config.Recorder) recorder.Options {
	return recorder.Options{
		SaveDir:      rc.SaveDir,
		BlankMedia:   rc.BlankMedia,
		FileName:     rc.FileName,
		Encoder:      rc.Encoder,
		Bitrate:      rc.Bitrate,
		SampleRate:   rc.SampleRate,
		ChannelCount: rc.ChannelCount,
		PollInterval: rc.PollInterval,
	}
}
