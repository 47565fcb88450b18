// Package recorder toggles microphone recording whenever a volume button
// is pressed.
//
// Android gives Termux no key events while the screen is off, so the
// recorder plays a long silent track, pins the music volume at 1 and polls
// it. Any change means a button was pressed: recording is toggled and the
// volume pinned again. Every termux-api call takes about half a second, so
// the polling loop needs no extra delay.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	termux "github.com/MateoSegura/termuxapi-go"
	"github.com/MateoSegura/termuxapi-go/api"
)

const (
	musicStream  = "music"
	pinnedVolume = 1
)

// Device is the part of api.Device the recorder drives.
type Device interface {
	MediaPlayerPlay(ctx context.Context, file string) error
	MediaPlayerStop(ctx context.Context) (api.Outcome, error)
	Volume(ctx context.Context, stream string) (api.VolumeStream, bool, error)
	SetVolume(ctx context.Context, stream string, volume int) error
	Vibrate(ctx context.Context, duration *int, force bool) error
	Toast(ctx context.Context, text string, opts api.ToastOptions) error
	MicrophoneRecord(ctx context.Context, opts api.RecordOptions) error
	MicrophoneRecordInfo(ctx context.Context) (api.RecordingInfo, error)
	MicrophoneRecordQuit(ctx context.Context) (api.Outcome, error)
}

var _ Device = (*api.Device)(nil)

// Options configures a Recorder.
type Options struct {
	// SaveDir is the directory on the device recordings are written to.
	SaveDir string
	// BlankMedia is a long silent track that keeps the music stream active.
	BlankMedia string
	// FileName is a time.Format layout for recording names.
	FileName string

	Encoder      string
	Bitrate      int
	SampleRate   int
	ChannelCount int

	// PollInterval is an extra pause between volume polls.
	PollInterval time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Recorder holds the toggle state.
type Recorder struct {
	dev       Device
	opts      Options
	logger    zerolog.Logger
	recording bool
}

// New creates a Recorder.
func New(dev Device, opts Options, logger zerolog.Logger) *Recorder {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Recorder{dev: dev, opts: opts, logger: logger}
}

// Recording reports whether the recorder believes a recording is running.
func (r *Recorder) Recording() bool { return r.recording }

// Setup starts the silent track, pins the volume and reads the current
// recording state. Failing to play the track or pin the volume is
// returned so the caller can decide whether to go on.
func (r *Recorder) Setup(ctx context.Context) error {
	var errs []error

	if err := r.dev.MediaPlayerPlay(ctx, r.opts.BlankMedia); err != nil {
		errs = append(errs, fmt.Errorf("play blank media: %w", err))
	}
	if err := r.dev.SetVolume(ctx, musicStream, pinnedVolume); err != nil {
		errs = append(errs, fmt.Errorf("pin music volume: %w", err))
	}

	info, err := r.dev.MicrophoneRecordInfo(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("recording state unknown, assuming idle")
	}
	r.recording = err == nil && info.IsRecording
	r.logger.Info().Bool("recording", r.recording).Msg("waiting for volume button")

	return errors.Join(errs...)
}

// Step polls the volume once. When it has moved off the pinned value the
// recording is toggled and the volume pinned again; toggled reports
// whether that happened.
func (r *Recorder) Step(ctx context.Context) (toggled bool, err error) {
	vol, ok, err := r.dev.Volume(ctx, musicStream)
	if err != nil {
		return false, fmt.Errorf("get volume: %w", err)
	}
	if !ok {
		return false, errors.New("get volume: device reports no music stream")
	}
	if vol.Volume == pinnedVolume {
		return false, nil
	}

	if r.recording {
		err = r.stop(ctx)
	} else {
		err = r.start(ctx)
	}

	if pinErr := r.dev.SetVolume(ctx, musicStream, pinnedVolume); pinErr != nil {
		err = errors.Join(err, fmt.Errorf("pin music volume: %w", pinErr))
	}
	return true, err
}

// Run polls until ctx is done, then stops the silent track. Step failures
// are reported on the device and do not end the loop.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		if _, err := r.Step(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			r.logger.Error().Err(err).Msg("step failed")
			r.notifyError(ctx, err)
		}

		if r.opts.PollInterval > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(r.opts.PollInterval):
			}
		}
		if ctx.Err() != nil {
			break
		}
	}

	r.logger.Info().Msg("stopping playback")
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if _, err := r.dev.MediaPlayerStop(stopCtx); err != nil {
		return fmt.Errorf("stop playback: %w", err)
	}
	return nil
}

func (r *Recorder) start(ctx context.Context) error {
	name := r.opts.Now().Format(r.opts.FileName)
	file := path.Join(r.opts.SaveDir, name)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.vibrate(gctx, 600)
		return nil
	})
	g.Go(func() error {
		return r.dev.MicrophoneRecord(gctx, api.RecordOptions{
			File:         file,
			Limit:        termux.Ptr(0),
			Encoder:      r.opts.Encoder,
			Bitrate:      positive(r.opts.Bitrate),
			SampleRate:   positive(r.opts.SampleRate),
			ChannelCount: positive(r.opts.ChannelCount),
		})
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("start recording: %w", err)
	}

	r.recording = true
	r.logger.Info().Str("file", file).Msg("recording")
	return nil
}

func (r *Recorder) stop(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.vibrate(gctx, 200)
		r.vibrate(gctx, 200)
		return nil
	})
	g.Go(func() error {
		_, err := r.dev.MicrophoneRecordQuit(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("stop recording: %w", err)
	}

	r.recording = false
	r.logger.Info().Msg("stopped, waiting")
	return nil
}

func (r *Recorder) vibrate(ctx context.Context, millis int) {
	if err := r.dev.Vibrate(ctx, &millis, true); err != nil {
		r.logger.Warn().Err(err).Msg("vibrate")
	}
}

// notifyError buzzes for five seconds and shows a red toast, so a failure
// is noticed with the phone in a pocket.
func (r *Recorder) notifyError(ctx context.Context, cause error) {
	var g errgroup.Group
	g.Go(func() error {
		r.vibrate(ctx, 5000)
		return nil
	})
	g.Go(func() error {
		return r.dev.Toast(ctx, "termux-volrec: "+cause.Error(), api.ToastOptions{
			Position:  "bottom",
			TextColor: "red",
		})
	})
	if err := g.Wait(); err != nil {
		r.logger.Warn().Err(err).Msg("toast")
	}
}

func positive(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}
