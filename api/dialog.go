package api

import (
	"context"

	termux "github.com/MateoSegura/termuxapi-go"
)

// DialogResult is what a termux-dialog widget returns. Code is -1 when
// the user confirmed and -2 when the dialog was dismissed.
type DialogResult struct {
	Code   int           `json:"code"`
	Text   string        `json:"text"`
	Index  *int          `json:"index,omitempty"`
	Values []DialogValue `json:"values,omitempty"`
}

// DialogValue is one selected item of a checkbox dialog.
type DialogValue struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Confirmed reports whether the user accepted the dialog.
func (r DialogResult) Confirmed() bool { return r.Code == -1 }

func (d *Device) dialog(ctx context.Context, widget string, flags []termux.Flag, options ...termux.Option) (DialogResult, error) {
	inv := termux.BuildArgs([]string{"termux-dialog", widget}, flags, options)
	return termux.Call(ctx, d.client, inv, termux.JSON[DialogResult]{})
}

// DialogWidgets lists the widgets termux-dialog supports.
func (d *Device) DialogWidgets(ctx context.Context) (string, error) {
	return d.text(ctx, termux.Invocation{"termux-dialog", "-l"})
}

// DialogConfirm asks a yes/no question.
func (d *Device) DialogConfirm(ctx context.Context, title, hint string) (DialogResult, error) {
	return d.dialog(ctx, "confirm", nil, termux.O("-t", str(title)), termux.O("-i", str(hint)))
}

// DialogCheckbox lets the user tick any of values.
func (d *Device) DialogCheckbox(ctx context.Context, title string, values []string) (DialogResult, error) {
	return d.dialog(ctx, "checkbox", nil, termux.O("-t", str(title)), termux.O("-v", list(values)))
}

// DialogCounter picks a number. bounds is min, max and start; nil uses the
// tool's defaults.
func (d *Device) DialogCounter(ctx context.Context, title string, bounds []int) (DialogResult, error) {
	return d.dialog(ctx, "counter", nil, termux.O("-t", str(title)), termux.O("-r", list(bounds)))
}

// DialogDate picks a date. format is a Java SimpleDateFormat pattern such
// as "dd-MM-yyyy k:m:s".
func (d *Device) DialogDate(ctx context.Context, title, format string) (DialogResult, error) {
	return d.dialog(ctx, "date", nil, termux.O("-t", str(title)), termux.O("-d", str(format)))
}

// DialogRadio picks exactly one of values.
func (d *Device) DialogRadio(ctx context.Context, title string, values []string) (DialogResult, error) {
	return d.dialog(ctx, "radio", nil, termux.O("-t", str(title)), termux.O("-v", list(values)))
}

// DialogSheet picks one of values from a bottom sheet.
func (d *Device) DialogSheet(ctx context.Context, title string, values []string) (DialogResult, error) {
	return d.dialog(ctx, "sheet", nil, termux.O("-t", str(title)), termux.O("-v", list(values)))
}

// DialogSpinner picks one of values from a drop-down.
func (d *Device) DialogSpinner(ctx context.Context, title string, values []string) (DialogResult, error) {
	return d.dialog(ctx, "spinner", nil, termux.O("-t", str(title)), termux.O("-v", list(values)))
}

// DialogSpeech transcribes speech.
func (d *Device) DialogSpeech(ctx context.Context, title, hint string) (DialogResult, error) {
	return d.dialog(ctx, "speech", nil, termux.O("-t", str(title)), termux.O("-i", str(hint)))
}

// TextDialogOptions configures DialogText.
type TextDialogOptions struct {
	Title     string
	Hint      string
	MultiLine bool
	Number    bool
	Password  bool
}

// DialogText reads free text.
func (d *Device) DialogText(ctx context.Context, opts TextDialogOptions) (DialogResult, error) {
	flags := []termux.Flag{
		termux.F("-m", opts.MultiLine),
		termux.F("-n", opts.Number),
		termux.F("-p", opts.Password),
	}
	return d.dialog(ctx, "text", flags, termux.O("-t", str(opts.Title)), termux.O("-i", str(opts.Hint)))
}

// DialogTime picks a time of day.
func (d *Device) DialogTime(ctx context.Context, title string) (DialogResult, error) {
	return d.dialog(ctx, "time", nil, termux.O("-t", str(title)))
}
