package dashboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler reloads the controller on a cron schedule. A reload that is
// still running when the next tick fires causes that tick to be skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewScheduler registers a reload of c on schedule. The schedule uses the
// standard five-field syntax or a descriptor such as "@every 1h".
func NewScheduler(ctx context.Context, c *Controller, schedule string, logger *slog.Logger) (*Scheduler, error) {
	cl := cronLogger{logger: logger}
	cr := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	_, err := cr.AddFunc(schedule, func() {
		if ctx.Err() != nil {
			return
		}
		c.Reload(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule reload %q: %w", schedule, err)
	}
	return &Scheduler{cron: cr, logger: logger}, nil
}

// Start begins running scheduled reloads in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("reload scheduler started", "next", s.cron.Entries()[0].Next)
}

// Stop prevents further reloads and waits for a running one to finish or
// for ctx to be done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("reload still running at shutdown")
	}
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
