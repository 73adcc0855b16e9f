package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Runner schedules jobs on cron specs. A job still running when its next
// tick fires is skipped for that tick.
type Runner struct {
	cron    *cron.Cron
	logger  zerolog.Logger
	timeout time.Duration
}

// NewRunner creates a Runner evaluating specs in loc. Each run gets a
// context bounded by timeout.
func NewRunner(loc *time.Location, timeout time.Duration, logger zerolog.Logger) *Runner {
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{logger: logger}
	return &Runner{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		timeout: timeout,
	}
}

// Add registers job on a standard five-field cron spec.
func (r *Runner) Add(spec string, job Job) error {
	_, err := r.cron.AddFunc(spec, func() { r.RunOnce(context.Background(), job) })
	if err != nil {
		return fmt.Errorf("schedule %s on %q: %w", job.Name(), spec, err)
	}
	r.logger.Info().Str("job", job.Name()).Str("spec", spec).Msg("job scheduled")
	return nil
}

// RunOnce executes job immediately with the runner's timeout and logs the
// outcome.
func (r *Runner) RunOnce(ctx context.Context, job Job) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	start := time.Now()
	err := job.Run(ctx)
	evt := r.logger.Info()
	if err != nil {
		evt = r.logger.Error().Err(err)
	}
	evt.Str("job", job.Name()).Dur("took", time.Since(start)).Msg("job run")
	return err
}

func (r *Runner) Start() { r.cron.Start() }

// Stop stops scheduling and waits for running jobs until ctx ends.
func (r *Runner) Stop(ctx context.Context) error {
	select {
	case <-r.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{ logger zerolog.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
