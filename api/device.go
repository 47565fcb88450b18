// Package api wraps each Termux:API command in a typed method.
//
// Every method builds the command's invocation and selects the interpreter
// matching how that command reports its result:
//
//	c := termux.New(termux.WithTimeout(15 * time.Second))
//	defer c.Close()
//
//	dev := api.New(c)
//	battery, err := dev.BatteryStatus(ctx)
//
// Commands that print a status sentence return an Outcome. The sentences
// differ between devices and termux-api releases, so a sentence no table
// entry recognises is reported as OutcomeUnknown rather than guessed.
package api

import (
	"context"

	termux "github.com/MateoSegura/termuxapi-go"
)

// Device issues Termux:API commands through a termux.Client.
type Device struct {
	client *termux.Client
}

// New creates a Device using c.
func New(c *termux.Client) *Device {
	return &Device{client: c}
}

// Client returns the underlying client.
func (d *Device) Client() *termux.Client { return d.client }

// Outcome classifies the status sentence printed by commands that change
// device state.
type Outcome int

const (
	// OutcomeUnknown means the output matched no known sentence.
	OutcomeUnknown Outcome = iota

	// OutcomeDone means the requested change was made.
	OutcomeDone

	// OutcomeAlready means the device was already in the requested state.
	OutcomeAlready

	// OutcomeNothing means there was nothing to act on, for example no
	// track to pause.
	OutcomeNothing
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDone:
		return "done"
	case OutcomeAlready:
		return "already"
	case OutcomeNothing:
		return "nothing"
	default:
		return "unknown"
	}
}

// Result is the generic JSON tree returned by commands whose payload has
// no fixed shape.
type Result = map[string]any

func (d *Device) json(ctx context.Context, inv termux.Invocation, opts ...termux.RunOption) (Result, error) {
	return termux.Call(ctx, d.client, inv, termux.JSON[Result]{}, opts...)
}

func (d *Device) jsonList(ctx context.Context, inv termux.Invocation) ([]Result, error) {
	return termux.Call(ctx, d.client, inv, termux.JSON[[]Result]{})
}

func (d *Device) silent(ctx context.Context, inv termux.Invocation, opts ...termux.RunOption) error {
	_, err := termux.Call(ctx, d.client, inv, termux.Silent{}, opts...)
	return err
}

func (d *Device) outcome(ctx context.Context, inv termux.Invocation, table ...termux.Prefixed[Outcome]) (Outcome, error) {
	return termux.Call(ctx, d.client, inv, termux.PrefixMap[Outcome]{Table: table, Default: OutcomeUnknown})
}

func (d *Device) text(ctx context.Context, inv termux.Invocation) (string, error) {
	return termux.Call(ctx, d.client, inv, termux.Text{})
}

func entry(prefix string, o Outcome) termux.Prefixed[Outcome] {
	return termux.Prefixed[Outcome]{Prefix: prefix, Value: o}
}

// str makes an empty string an absent option value.
func str(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// list makes an empty list an absent option value.
func list[T any](items []T) any {
	if len(items) == 0 {
		return nil
	}
	return termux.JoinList(items)
}

// joined renders items as one comma-separated positional argument.
func joined[T any](items []T) string {
	s, _ := termux.JoinList(items).(string)
	return s
}
