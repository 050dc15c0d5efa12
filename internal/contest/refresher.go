package contest

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	appLog "cpcal/internal/log"
)

// StartRefresher runs Refresh once, then on every tick of schedule (standard
// five-field cron syntax, evaluated in the service location) until ctx is
// done. It returns once the schedule is installed; the returned channel is
// closed after the scheduler has stopped and any running refresh finished.
func (s *Service) StartRefresher(ctx context.Context, schedule string) (<-chan struct{}, error) {
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(schedule, func() { s.refreshLogged(ctx) }); err != nil {
		return nil, fmt.Errorf("contest: invalid refresh schedule %q: %w", schedule, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.refreshLogged(ctx)
		c.Start()
		appLog.Info("contest refresher started", "schedule", schedule)

		<-ctx.Done()
		<-c.Stop().Done()
		appLog.Info("contest refresher stopped")
	}()
	return done, nil
}

func (s *Service) refreshLogged(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.Refresh(ctx); err != nil {
		appLog.Error("scheduled refresh failed", err)
	}
}
