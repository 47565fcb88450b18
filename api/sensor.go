package api

import (
	"context"

	termux "github.com/MateoSegura/termuxapi-go"
)

// Location is one fix from termux-location.
type Location struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Altitude         float64 `json:"altitude"`
	Accuracy         float64 `json:"accuracy"`
	VerticalAccuracy float64 `json:"vertical_accuracy"`
	Bearing          float64 `json:"bearing"`
	Speed            float64 `json:"speed"`
	ElapsedMillis    int64   `json:"elapsedMs"`
	Provider         string  `json:"provider"`
}

// Location providers.
const (
	ProviderGPS     = "gps"
	ProviderNetwork = "network"
	ProviderPassive = "passive"
)

func locationArgs(provider, request string) termux.Invocation {
	if provider == "" {
		provider = ProviderGPS
	}
	return termux.Invocation{"termux-location", "-p", provider, "-r", request}
}

// Location waits for a fresh fix from provider.
func (d *Device) Location(ctx context.Context, provider string) (Location, error) {
	return termux.Call(ctx, d.client, locationArgs(provider, "once"), termux.JSON[Location]{})
}

// LastLocation returns the last known fix without waiting.
func (d *Device) LastLocation(ctx context.Context, provider string) (Location, error) {
	return termux.Call(ctx, d.client, locationArgs(provider, "last"), termux.JSON[Location]{})
}

// LocationUpdates streams fixes until the stream is cancelled.
func (d *Device) LocationUpdates(ctx context.Context, provider string) (*termux.Stream[Location], error) {
	return termux.Open[Location](ctx, d.client, locationArgs(provider, "updates"))
}

// SensorReading is one sensor's values in a termux-sensor report.
type SensorReading struct {
	Values []float64 `json:"values"`
}

// SensorReadings maps sensor names to their latest values.
type SensorReadings map[string]SensorReading

// SensorOptions configures Sensor. With no Sensors every sensor is read.
type SensorOptions struct {
	Sensors []string
	// DelayMillis is the interval between reports.
	DelayMillis *int
	// Limit stops the tool after that many reports.
	Limit *int
}

func sensorArgs(sensors []string, options ...termux.Option) termux.Invocation {
	base := []string{"termux-sensor", "-a"}
	if len(sensors) > 0 {
		base = []string{"termux-sensor", "-s", joined(sensors)}
	}
	return termux.BuildArgs(base, nil, options)
}

// Sensor streams sensor reports. The stream ends on its own once Limit
// reports have been delivered.
func (d *Device) Sensor(ctx context.Context, opts SensorOptions) (*termux.Stream[SensorReadings], error) {
	inv := sensorArgs(opts.Sensors, termux.O("-d", opts.DelayMillis), termux.O("-n", opts.Limit))
	return termux.Open[SensorReadings](ctx, d.client, inv)
}

// SensorOnce takes a single report.
func (d *Device) SensorOnce(ctx context.Context, sensors ...string) (SensorReadings, error) {
	inv := sensorArgs(sensors, termux.O("-n", 1))
	return termux.Call(ctx, d.client, inv, termux.JSON[SensorReadings]{})
}

type sensorList struct {
	Sensors []string `json:"sensors"`
}

// SensorList names the available sensors.
func (d *Device) SensorList(ctx context.Context) ([]string, error) {
	out, err := termux.Call(ctx, d.client, termux.Invocation{"termux-sensor", "-l"}, termux.JSON[sensorList]{})
	return out.Sensors, err
}

// SensorCleanup releases sensor listeners left behind by killed streams.
func (d *Device) SensorCleanup(ctx context.Context) (Outcome, error) {
	return d.outcome(ctx, termux.Invocation{"termux-sensor", "-c"},
		entry("Sensor cleanup successful", OutcomeDone),
		entry("Sensor cleanup unnecessary", OutcomeNothing),
	)
}
