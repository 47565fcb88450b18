package api

import (
	"context"

	termux "github.com/MateoSegura/termuxapi-go"
)

// Job describes a script for termux-job-scheduler. Nil fields are left to
// the scheduler's defaults; see termux-job-scheduler -h.
type Job struct {
	ScriptPath         string
	ID                 *int
	PeriodMillis       *int
	Network            string
	BatteryNotLow      *bool
	StorageNotLow      *bool
	Charging           *bool
	Persisted          *bool
	TriggerContentURI  string
	TriggerContentFlag *int
}

func (j Job) options() []termux.Option {
	return []termux.Option{
		termux.O("-s", j.ScriptPath),
		termux.O("--job-id", j.ID),
		termux.O("--period-ms", j.PeriodMillis),
		termux.O("--network", str(j.Network)),
		termux.O("--battery-not-low", j.BatteryNotLow),
		termux.O("--storage-not-low", j.StorageNotLow),
		termux.O("--charging", j.Charging),
		termux.O("--persisted", j.Persisted),
		termux.O("--trigger-content-uri", str(j.TriggerContentURI)),
		termux.O("--trigger-content-flag", j.TriggerContentFlag),
	}
}

// JobSchedule schedules j and returns the scheduler's report.
func (d *Device) JobSchedule(ctx context.Context, j Job) (string, error) {
	return d.text(ctx, termux.BuildArgs([]string{"termux-job-scheduler"}, nil, j.options()))
}

// JobList returns the scheduler's listing of pending jobs.
func (d *Device) JobList(ctx context.Context) (string, error) {
	return d.text(ctx, termux.Invocation{"termux-job-scheduler", "-p"})
}

// JobCancel cancels the job with id.
func (d *Device) JobCancel(ctx context.Context, id int) (string, error) {
	inv := termux.BuildArgs([]string{"termux-job-scheduler"}, nil, []termux.Option{
		termux.O("--cancel", id),
	})
	return d.text(ctx, inv)
}

// JobCancelAll cancels every pending job.
func (d *Device) JobCancelAll(ctx context.Context) (string, error) {
	return d.text(ctx, termux.Invocation{"termux-job-scheduler", "--cancel-all"})
}
