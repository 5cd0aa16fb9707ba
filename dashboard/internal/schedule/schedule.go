// Package schedule runs a job on a cron schedule until its context ends.
package schedule

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work. A returned error is logged and the
// schedule carries on.
type Job func(ctx context.Context) error

// Option configures Run.
type Option func(*options)

type options struct {
	immediate bool
}

// Immediately also runs the job once before the first scheduled tick.
func Immediately() Option {
	return func(o *options) { o.immediate = true }
}

// Run registers job under spec (standard five-field cron or a descriptor such
// as @hourly) and blocks until ctx is cancelled, then waits for a running job
// to finish. A tick that arrives while the previous run is still going is
// skipped. Only an invalid spec is returned as an error.
func Run(ctx context.Context, spec string, job Job, opts ...Option) error {
	var o options
	for _, fn := range opts {
		fn(&o)
	}

	logger := slogLogger{}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	id, err := c.AddFunc(spec, func() { runJob(ctx, job) })
	if err != nil {
		return fmt.Errorf("schedule: parse %q: %w", spec, err)
	}

	if o.immediate {
		runJob(ctx, job)
	}

	c.Start()
	slog.Info("schedule: running", "spec", spec, "next", c.Entry(id).Next)

	<-ctx.Done()

	slog.Info("schedule: stopping")
	<-c.Stop().Done()
	return nil
}

func runJob(ctx context.Context, job Job) {
	if ctx.Err() != nil {
		return
	}
	if err := job(ctx); err != nil {
		slog.Error("schedule: job failed", "err", err)
	}
}

// slogLogger routes cron's own logging into the default slog logger.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
