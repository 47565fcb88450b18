package api

import (
	"context"

	termux "github.com/MateoSegura/termuxapi-go"
)

// TTSEngine is one installed text-to-speech engine.
type TTSEngine struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Default bool   `json:"default"`
}

// TTSEngines lists installed text-to-speech engines.
func (d *Device) TTSEngines(ctx context.Context) ([]TTSEngine, error) {
	return termux.Call(ctx, d.client, termux.Invocation{"termux-tts-engines"}, termux.JSON[[]TTSEngine]{})
}

// Voice selects how text is spoken. Empty fields use the engine defaults.
type Voice struct {
	Engine   string
	Language string
	Region   string
	Variant  string
	Pitch    *float64
	Rate     *float64
	// Stream is ALARM, MUSIC, NOTIFICATION, RING, SYSTEM or VOICE_CALL.
	Stream string
}

func (v Voice) invocation(positional ...string) termux.Invocation {
	return termux.BuildArgs([]string{"termux-tts-speak"}, nil, []termux.Option{
		termux.O("-e", str(v.Engine)),
		termux.O("-l", str(v.Language)),
		termux.O("-n", str(v.Region)),
		termux.O("-v", str(v.Variant)),
		termux.O("-p", v.Pitch),
		termux.O("-r", v.Rate),
		termux.O("-s", str(v.Stream)),
	}, positional...)
}

// TTSSpeak speaks text and returns once it has been spoken. Pass
// termux.WithCallTimeout for long passages.
func (d *Device) TTSSpeak(ctx context.Context, text string, v Voice, opts ...termux.RunOption) error {
	return d.silent(ctx, v.invocation(text), opts...)
}

// Speaker starts a long-lived speech process that reads one utterance per
// Speak call, avoiding the engine start-up cost of TTSSpeak.
func (d *Device) Speaker(ctx context.Context, v Voice) (*termux.Speaker, error) {
	return termux.OpenSpeaker(ctx, d.client, v.invocation())
}
