package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/payme/contracts/internal/platform/logger"

	sync "github.com/sasha-s/go-deadlock"
)

const (
	// DefaultPollInterval is how often Run checks jobs for readiness.
	DefaultPollInterval = 100 * time.Millisecond
)

var (
	ErrNotFound = errors.New("Job not found")
)

// Scheduler provides the ability to schedule tasks to run at when they are ready.
type Scheduler struct {
	jobs         []Job
	lock         sync.Mutex
	pollInterval time.Duration
	stop         chan struct{}
	stopped      chan struct{}
}

// Job provides an interface that tells Scheduler when and how to run the job.
type Job interface {
	// IsReady returns true when a job should be executed.
	IsReady(ctx context.Context, now time.Time) bool

	// Run executes the job.
	Run(ctx context.Context, now time.Time)

	// IsComplete returns true when a job should be removed from the scheduler.
	IsComplete(ctx context.Context) bool

	// Equal returns true if another job matches it. Used to cancel jobs.
	Equal(other Job) bool
}

// New returns a Scheduler that checks its jobs every pollInterval.
func New(pollInterval time.Duration) *Scheduler {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Scheduler{
		pollInterval: pollInterval,
		stop:         make(chan struct{}),
		stopped:      make(chan struct{}),
	}
}

// ScheduleJob adds a job to the scheduler.
func (sch *Scheduler) ScheduleJob(ctx context.Context, job Job) error {
	sch.lock.Lock()
	defer sch.lock.Unlock()
	sch.jobs = append(sch.jobs, job)
	return nil
}

// CancelJob removes a job from the scheduler. The job passed in just needs to be equivalent based
// on the job's Equal function.
func (sch *Scheduler) CancelJob(ctx context.Context, job Job) error {
	sch.lock.Lock()
	defer sch.lock.Unlock()
	for i, existing := range sch.jobs {
		if existing.Equal(job) {
			sch.jobs = append(sch.jobs[:i], sch.jobs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Count returns the number of scheduled jobs.
func (sch *Scheduler) Count() int {
	sch.lock.Lock()
	defer sch.lock.Unlock()
	return len(sch.jobs)
}

// Run monitors jobs and runs them when they are ready, until Stop is called or ctx is done.
func (sch *Scheduler) Run(ctx context.Context) error {
	defer close(sch.stopped)

	ticker := time.NewTicker(sch.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sch.stop:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			sch.runReady(ctx, now)
		}
	}
}

// Stop requests Run finish and waits for it to finish.
func (sch *Scheduler) Stop(ctx context.Context) error {
	close(sch.stop)

	for {
		select {
		case <-sch.stopped:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
			logger.Info(ctx, "Waiting for scheduler to stop")
		}
	}
}

func (sch *Scheduler) runReady(ctx context.Context, now time.Time) {
	sch.lock.Lock()
	defer sch.lock.Unlock()

	remaining := sch.jobs[:0]
	for _, job := range sch.jobs {
		if job.IsReady(ctx, now) {
			job.Run(ctx, now)
		}
		if !job.IsComplete(ctx) {
			remaining = append(remaining, job)
		}
	}
	sch.jobs = remaining
}
