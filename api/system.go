package api

import (
	"context"
	"strconv"

	termux "github.com/MateoSegura/termuxapi-go"
)

// BatteryStatus is the output of termux-battery-status.
type BatteryStatus struct {
	Health      string  `json:"health"`
	Percentage  int     `json:"percentage"`
	Plugged     string  `json:"plugged"`
	Status      string  `json:"status"`
	Temperature float64 `json:"temperature"`
	Current     int64   `json:"current"`
}

// BatteryStatus reports charge level, health and charger state.
func (d *Device) BatteryStatus(ctx context.Context) (BatteryStatus, error) {
	return termux.Call(ctx, d.client, termux.Invocation{"termux-battery-status"}, termux.JSON[BatteryStatus]{})
}

// Brightness sets the screen brightness, 0 to 255.
// Requires the WRITE_SETTINGS permission.
func (d *Device) Brightness(ctx context.Context, level int) error {
	return d.silent(ctx, termux.Invocation{"termux-brightness", strconv.Itoa(level)})
}

// BrightnessAuto hands screen brightness back to the system.
func (d *Device) BrightnessAuto(ctx context.Context) error {
	return d.silent(ctx, termux.Invocation{"termux-brightness", "auto"})
}

// CallLog lists call history entries. Some devices return nothing even
// with the permission granted.
func (d *Device) CallLog(ctx context.Context, offset, limit int) ([]Result, error) {
	inv := termux.BuildArgs([]string{"termux-call-log"}, nil, []termux.Option{
		termux.O("-o", offset),
		termux.O("-l", limit),
	})
	return d.jsonList(ctx, inv)
}

// CameraInfo describes the device cameras.
func (d *Device) CameraInfo(ctx context.Context) ([]Result, error) {
	return d.jsonList(ctx, termux.Invocation{"termux-camera-info"})
}

// CameraPhoto takes a photo with the given camera and saves it as a JPEG.
func (d *Device) CameraPhoto(ctx context.Context, outputFile string, cameraID int) error {
	inv := termux.BuildArgs([]string{"termux-camera-photo"}, nil, []termux.Option{
		termux.O("-c", cameraID),
	}, outputFile)
	return d.silent(ctx, inv)
}

// ClipboardGet returns the clipboard text.
func (d *Device) ClipboardGet(ctx context.Context) (string, error) {
	return d.text(ctx, termux.Invocation{"termux-clipboard-get"})
}

// ClipboardSet replaces the clipboard text.
func (d *Device) ClipboardSet(ctx context.Context, text string) error {
	return d.silent(ctx, termux.Invocation{"termux-clipboard-set", text})
}

// ContactList returns all contacts.
func (d *Device) ContactList(ctx context.Context) ([]Result, error) {
	return d.jsonList(ctx, termux.Invocation{"termux-contact-list"})
}

// DownloadOptions configures Download. Empty fields are left to the
// system download manager.
type DownloadOptions struct {
	Path        string
	Title       string
	Description string
}

// Download queues url with the system download manager.
func (d *Device) Download(ctx context.Context, url string, opts DownloadOptions) error {
	inv := termux.BuildArgs([]string{"termux-download"}, nil, []termux.Option{
		termux.O("-p", str(opts.Path)),
		termux.O("-t", str(opts.Title)),
		termux.O("-d", str(opts.Description)),
	}, url)
	return d.silent(ctx, inv)
}

// Fingerprint prompts for fingerprint authentication.
func (d *Device) Fingerprint(ctx context.Context) (Result, error) {
	return d.json(ctx, termux.Invocation{"termux-fingerprint"})
}

// InfraredFrequencies lists the carrier frequencies the IR emitter supports.
func (d *Device) InfraredFrequencies(ctx context.Context) ([]Result, error) {
	return d.jsonList(ctx, termux.Invocation{"termux-infrared-frequencies"})
}

// InfraredTransmit sends an on/off pattern, in microseconds, at frequency Hz.
func (d *Device) InfraredTransmit(ctx context.Context, frequency int, pattern []int) error {
	inv := termux.BuildArgs([]string{"termux-infrared-transmit"}, nil, []termux.Option{
		termux.O("-f", frequency),
	}, joined(pattern))
	return d.silent(ctx, inv)
}

// ShareOptions configures Share.
type ShareOptions struct {
	// Action is edit, send or view.
	Action          string
	ContentType     string
	DefaultReceiver bool
	Title           string
}

// Share hands file to another app.
func (d *Device) Share(ctx context.Context, file string, opts ShareOptions) error {
	inv := termux.BuildArgs([]string{"termux-share"},
		[]termux.Flag{termux.F("-d", opts.DefaultReceiver)},
		[]termux.Option{
			termux.O("-a", str(opts.Action)),
			termux.O("-c", str(opts.ContentType)),
			termux.O("-t", str(opts.Title)),
		}, file)
	return d.silent(ctx, inv)
}

// SMSListOptions configures SMSList.
type SMSListOptions struct {
	Offset     int
	Limit      int
	ShowDate   bool
	ShowNumber bool
	// Type is all, inbox, sent, draft or outbox.
	Type string
}

// SMSList lists text messages.
func (d *Device) SMSList(ctx context.Context, opts SMSListOptions) ([]Result, error) {
	if opts.Limit == 0 {
		opts.Limit = 10
	}
	if opts.Type == "" {
		opts.Type = "inbox"
	}
	inv := termux.BuildArgs([]string{"termux-sms-list"},
		[]termux.Flag{
			termux.F("-d", opts.ShowDate),
			termux.F("-n", opts.ShowNumber),
		},
		[]termux.Option{
			termux.O("-l", opts.Limit),
			termux.O("-o", opts.Offset),
			termux.O("-t", opts.Type),
		})
	return d.jsonList(ctx, inv)
}

// SMSSend sends text to every number. simSlot selects the SIM; nil
// uses the default.
func (d *Device) SMSSend(ctx context.Context, text string, numbers []string, simSlot *int) error {
	inv := termux.BuildArgs([]string{"termux-sms-send"}, nil, []termux.Option{
		termux.O("-n", list(numbers)),
		termux.O("-s", simSlot),
	}, text)
	return d.silent(ctx, inv)
}

// StorageGet asks the user to pick a file and copies it to outputFile.
func (d *Device) StorageGet(ctx context.Context, outputFile string) error {
	return d.silent(ctx, termux.Invocation{"termux-storage-get", outputFile})
}

// TelephonyCall dials number.
func (d *Device) TelephonyCall(ctx context.Context, number string) error {
	return d.silent(ctx, termux.Invocation{"termux-telephony-call", number})
}

// TelephonyCellInfo describes visible cell towers.
func (d *Device) TelephonyCellInfo(ctx context.Context) ([]Result, error) {
	return d.jsonList(ctx, termux.Invocation{"termux-telephony-cellinfo"})
}

// TelephonyDeviceInfo describes the phone and its network.
func (d *Device) TelephonyDeviceInfo(ctx context.Context) (Result, error) {
	return d.json(ctx, termux.Invocation{"termux-telephony-deviceinfo"})
}

// ToastOptions configures Toast. Zero values use the tool's defaults:
// middle of the screen, white on gray, long duration.
type ToastOptions struct {
	// Position is top, middle or bottom.
	Position        string
	Short           bool
	TextColor       string
	BackgroundColor string
}

// Toast shows a transient message.
func (d *Device) Toast(ctx context.Context, text string, opts ToastOptions) error {
	inv := termux.BuildArgs([]string{"termux-toast"},
		[]termux.Flag{termux.F("-s", opts.Short)},
		[]termux.Option{
			termux.O("-g", str(opts.Position)),
			termux.O("-c", str(opts.TextColor)),
			termux.O("-b", str(opts.BackgroundColor)),
		}, text)
	return d.silent(ctx, inv)
}

// Torch switches the flashlight.
func (d *Device) Torch(ctx context.Context, on bool) error {
	state := "off"
	if on {
		state = "on"
	}
	return d.silent(ctx, termux.Invocation{"termux-torch", state})
}

// USB requests access to device, optionally running command with the
// open file descriptor.
func (d *Device) USB(ctx context.Context, device string, permissionDialog bool, command string) error {
	inv := termux.BuildArgs([]string{"termux-usb"},
		[]termux.Flag{termux.F("-r", permissionDialog)},
		[]termux.Option{termux.O("-e", str(command))},
		device)
	return d.silent(ctx, inv)
}

// USBList lists attached USB devices.
func (d *Device) USBList(ctx context.Context) ([]string, error) {
	return termux.Call(ctx, d.client, termux.Invocation{"termux-usb", "-l"}, termux.JSON[[]string]{})
}

// Vibrate vibrates for duration milliseconds; nil uses the tool default.
// force vibrates even in silent mode.
func (d *Device) Vibrate(ctx context.Context, duration *int, force bool) error {
	inv := termux.BuildArgs([]string{"termux-vibrate"},
		[]termux.Flag{termux.F("-f", force)},
		[]termux.Option{termux.O("-d", duration)})
	return d.silent(ctx, inv)
}

// VolumeStream is one audio stream reported by termux-volume.
type VolumeStream struct {
	Stream    string `json:"stream"`
	Volume    int    `json:"volume"`
	MaxVolume int    `json:"max_volume"`
}

// Volumes reports every audio stream's volume.
func (d *Device) Volumes(ctx context.Context) ([]VolumeStream, error) {
	return termux.Call(ctx, d.client, termux.Invocation{"termux-volume"}, termux.JSON[[]VolumeStream]{})
}

// Volume returns the named stream, or ok=false if the device has none by
// that name.
func (d *Device) Volume(ctx context.Context, stream string) (VolumeStream, bool, error) {
	streams, err := d.Volumes(ctx)
	if err != nil {
		return VolumeStream{}, false, err
	}
	for _, s := range streams {
		if s.Stream == stream {
			return s, true, nil
		}
	}
	return VolumeStream{}, false, nil
}

// SetVolume sets stream (alarm, music, notification, ring, system, call)
// to volume.
func (d *Device) SetVolume(ctx context.Context, stream string, volume int) error {
	return d.silent(ctx, termux.Invocation{"termux-volume", stream, strconv.Itoa(volume)})
}

// Wallpaper sets the wallpaper from a file or a URL.
func (d *Device) Wallpaper(ctx context.Context, file, url string, lockscreen bool) error {
	inv := termux.BuildArgs([]string{"termux-wallpaper"},
		[]termux.Flag{termux.F("-l", lockscreen)},
		[]termux.Option{
			termux.O("-f", str(file)),
			termux.O("-u", str(url)),
		})
	return d.silent(ctx, inv)
}

// WifiConnectionInfo describes the current Wi-Fi connection.
func (d *Device) WifiConnectionInfo(ctx context.Context) (Result, error) {
	return d.json(ctx, termux.Invocation{"termux-wifi-connectioninfo"})
}

// WifiEnable toggles Wi-Fi. Not honoured on every device.
func (d *Device) WifiEnable(ctx context.Context, enable bool) error {
	return d.silent(ctx, termux.Invocation{"termux-wifi-enable", strconv.FormatBool(enable)})
}

// WifiScanInfo returns the last Wi-Fi scan results.
func (d *Device) WifiScanInfo(ctx context.Context) ([]Result, error) {
	return d.jsonList(ctx, termux.Invocation{"termux-wifi-scaninfo"})
}
