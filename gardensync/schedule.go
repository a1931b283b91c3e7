package gardensync

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronLogger routes cron's own messages through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

// RunScheduled runs r on the cron spec until ctx is cancelled. A run that is
// still going when the next tick fires makes that tick a no-op, so runs never
// overlap.
func RunScheduled(ctx context.Context, spec string, r *Runner) error {
	logger := cronLogger{s: r.log.Sugar()}
	c := cron.New(
		cron.WithLocation(r.cfg.Location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(spec, func() {
		if _, err := r.RunOnce(); err != nil {
			r.log.Warn("run finished with persistence errors", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}

	c.Start()
	r.log.Info("scheduler started", zap.String("schedule", spec), zap.String("timezone", r.cfg.Location.String()))
	<-ctx.Done()
	<-c.Stop().Done()
	r.log.Info("scheduler stopped")
	return nil
}
