package api

import (
	"context"
	"regexp"
	"strconv"

	termux "github.com/MateoSegura/termuxapi-go"
)

// Status sentences printed by termux-media-player and
// termux-microphone-record.
var (
	pauseOutcomes = []termux.Prefixed[Outcome]{
		entry("Paused playback", OutcomeDone),
		entry("Playback already paused", OutcomeAlready),
		entry("No track to pause", OutcomeNothing),
	}
	resumeOutcomes = []termux.Prefixed[Outcome]{
		entry("Resumed playback", OutcomeDone),
		entry("Already playing track", OutcomeAlready),
		entry("No previous track to resume", OutcomeNothing),
	}
	stopOutcomes = []termux.Prefixed[Outcome]{
		entry("Stopped playback", OutcomeDone),
		entry("No track to stop", OutcomeNothing),
	}
	recordQuitOutcomes = []termux.Prefixed[Outcome]{
		entry("Recording finished", OutcomeDone),
		entry("No recording to stop", OutcomeNothing),
	}
)

var scanFinished = regexp.MustCompile(`Finished scanning ([0-9]+) file`)

// MediaPlayerInfo reports the current track as "Key: value" pairs such as
// Status, Track and Current Position. With no track loaded the map is
// empty.
func (d *Device) MediaPlayerInfo(ctx context.Context) (map[string]string, error) {
	return termux.Call(ctx, d.client, termux.Invocation{"termux-media-player", "info"},
		termux.KeyValue{Sentinel: "No track currently"})
}

// MediaPlayerPlay starts playing file. Any reply other than "Now Playing"
// is returned as *termux.ToolError.
func (d *Device) MediaPlayerPlay(ctx context.Context, file string) error {
	_, err := termux.Call(ctx, d.client, termux.Invocation{"termux-media-player", "play", file},
		termux.PrefixGate{Prefix: "Now Playing"})
	return err
}

// MediaPlayerPause pauses playback.
func (d *Device) MediaPlayerPause(ctx context.Context) (Outcome, error) {
	return d.outcome(ctx, termux.Invocation{"termux-media-player", "pause"}, pauseOutcomes...)
}

// MediaPlayerResume resumes the paused track.
func (d *Device) MediaPlayerResume(ctx context.Context) (Outcome, error) {
	return d.outcome(ctx, termux.Invocation{"termux-media-player", "play"}, resumeOutcomes...)
}

// MediaPlayerStop stops playback and unloads the track.
func (d *Device) MediaPlayerStop(ctx context.Context) (Outcome, error) {
	return d.outcome(ctx, termux.Invocation{"termux-media-player", "stop"}, stopOutcomes...)
}

// MediaScan adds files to the media library and returns how many were
// scanned. Output that does not report a count yields an error matching
// termux.ErrUnmatched.
func (d *Device) MediaScan(ctx context.Context, files []string, recursive bool) (int, error) {
	inv := termux.BuildArgs([]string{"termux-media-scan"},
		[]termux.Flag{termux.F("-r", recursive)},
		nil, files...)
	return termux.Call(ctx, d.client, inv, termux.Pattern[int]{Regexp: scanFinished, Convert: strconv.Atoi})
}

// RecordOptions configures MicrophoneRecord. Zero values leave the choice
// to the device: a 15 minute limit and a file under /sdcard.
type RecordOptions struct {
	File         string
	Limit        *int
	Encoder      string
	Bitrate      *int
	SampleRate   *int
	ChannelCount *int
	Default      bool
}

// MicrophoneRecord starts recording in the background.
func (d *Device) MicrophoneRecord(ctx context.Context, opts RecordOptions) error {
	inv := termux.BuildArgs([]string{"termux-microphone-record"},
		[]termux.Flag{termux.F("-d", opts.Default)},
		[]termux.Option{
			termux.O("-f", str(opts.File)),
			termux.O("-l", opts.Limit),
			termux.O("-e", str(opts.Encoder)),
			termux.O("-b", opts.Bitrate),
			termux.O("-r", opts.SampleRate),
			termux.O("-c", opts.ChannelCount),
		})
	_, err := termux.Call(ctx, d.client, inv, termux.PrefixGate{Prefix: "Recording started"})
	return err
}

// RecordingInfo is the output of termux-microphone-record -i.
type RecordingInfo struct {
	IsRecording bool   `json:"isRecording"`
	OutputFile  string `json:"outputFile,omitempty"`
}

// MicrophoneRecordInfo reports whether a recording is in progress.
func (d *Device) MicrophoneRecordInfo(ctx context.Context) (RecordingInfo, error) {
	return termux.Call(ctx, d.client, termux.Invocation{"termux-microphone-record", "-i"}, termux.JSON[RecordingInfo]{})
}

// MicrophoneRecordQuit stops the current recording.
func (d *Device) MicrophoneRecordQuit(ctx context.Context) (Outcome, error) {
	return d.outcome(ctx, termux.Invocation{"termux-microphone-record", "-q"}, recordQuitOutcomes...)
}
