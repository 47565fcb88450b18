package api

import (
	"context"

	termux "github.com/MateoSegura/termuxapi-go"
)

// Notification describes a termux-notification. Empty fields are omitted
// from the command line. Action fields hold shell commands run when the
// user taps the matching element.
type Notification struct {
	ID       string
	Group    string
	Title    string
	Content  string
	Priority string
	// Type is "default" or "media".
	Type string

	Image    string
	Sound    bool
	Vibrate  []int
	LEDColor string
	LEDOn    *int
	LEDOff   *int

	AlertOnce bool
	Ongoing   bool

	Action        string
	DeleteAction  string
	Button1       string
	Button1Action string
	Button2       string
	Button2Action string
	Button3       string
	Button3Action string
	MediaNext     string
	MediaPause    string
	MediaPlay     string
	MediaPrevious string
}

func (n Notification) invocation() termux.Invocation {
	return termux.BuildArgs([]string{"termux-notification"},
		[]termux.Flag{
			termux.F("--alert-once", n.AlertOnce),
			termux.F("--ongoing", n.Ongoing),
			termux.F("--sound", n.Sound),
		},
		[]termux.Option{
			termux.O("--action", str(n.Action)),
			termux.O("--button1", str(n.Button1)),
			termux.O("--button1-action", str(n.Button1Action)),
			termux.O("--button2", str(n.Button2)),
			termux.O("--button2-action", str(n.Button2Action)),
			termux.O("--button3", str(n.Button3)),
			termux.O("--button3-action", str(n.Button3Action)),
			termux.O("--content", str(n.Content)),
			termux.O("--group", str(n.Group)),
			termux.O("--id", str(n.ID)),
			termux.O("--image-path", str(n.Image)),
			termux.O("--led-color", str(n.LEDColor)),
			termux.O("--led-off", n.LEDOff),
			termux.O("--led-on", n.LEDOn),
			termux.O("--on-delete", str(n.DeleteAction)),
			termux.O("--priority", str(n.Priority)),
			termux.O("--title", str(n.Title)),
			termux.O("--vibrate", list(n.Vibrate)),
			termux.O("--type", str(n.Type)),
			termux.O("--media-next", str(n.MediaNext)),
			termux.O("--media-pause", str(n.MediaPause)),
			termux.O("--media-play", str(n.MediaPlay)),
			termux.O("--media-previous", str(n.MediaPrevious)),
		})
}

// Notify posts n.
func (d *Device) Notify(ctx context.Context, n Notification) error {
	return d.silent(ctx, n.invocation())
}

// NotificationRemove removes the notification posted with id.
func (d *Device) NotificationRemove(ctx context.Context, id string) error {
	return d.silent(ctx, termux.Invocation{"termux-notification-remove", id})
}
