package scheduler

import (
	"context"
	"time"
)

// Process is the work a PeriodicProcess repeats.
type Process interface {
	Run(context.Context)
}

// ProcessFunc adapts a function to Process.
type ProcessFunc func(context.Context)

// Run calls f.
func (f ProcessFunc) Run(ctx context.Context) {
	f(ctx)
}

// PeriodicProcess is a Scheduler job runs a process at a specified frequency.
type PeriodicProcess struct {
	name      string
	process   Process
	frequency time.Duration
	next      time.Time
}

// NewPeriodicProcess returns a job that first runs one frequency after start.
func NewPeriodicProcess(name string, process Process, frequency time.Duration,
	start time.Time) *PeriodicProcess {

	return &PeriodicProcess{
		name:      name,
		process:   process,
		frequency: frequency,
		next:      start.Add(frequency),
	}
}

// IsReady returns true when a job should be executed.
func (pp *PeriodicProcess) IsReady(ctx context.Context, now time.Time) bool {
	return !now.Before(pp.next)
}

// Run executes the job.
func (pp *PeriodicProcess) Run(ctx context.Context, now time.Time) {
	pp.next = now.Add(pp.frequency)
	pp.process.Run(ctx)
}

// IsComplete returns true when a job should be removed from the scheduler.
func (pp *PeriodicProcess) IsComplete(ctx context.Context) bool {
	return false
}

// Equal returns true if another job matches it. Used to cancel jobs.
func (pp *PeriodicProcess) Equal(other Job) bool {
	otherPP, ok := other.(*PeriodicProcess)
	if !ok {
		return false
	}
	return pp.name == otherPP.name
}
