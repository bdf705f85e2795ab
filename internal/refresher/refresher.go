package refresher

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dalfonso89/currency-converter/internal/logger"
	"github.com/dalfonso89/currency-converter/internal/session"
)

const refreshTimeout = 30 * time.Second

// Target is the state a refresh job reloads
type Target interface {
	State() session.State
	Refresh(ctx context.Context) error
}

// Refresher reloads the session's latest table on a cron schedule.
// Historical tables never change, so sessions pinned to a date are skipped.
type Refresher struct {
	scheduler *cron.Cron
	target    Target
	logger    *logger.Logger
	ctx       context.Context
}

// New parses a standard five-field cron spec and registers the refresh job
func New(schedule string, target Target, logger *logger.Logger) (*Refresher, error) {
	refresher := &Refresher{
		scheduler: cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor))),
		target:    target,
		logger:    logger,
		ctx:       context.Background(),
	}

	if _, err := refresher.scheduler.AddFunc(schedule, func() { refresher.refresh(refresher.ctx) }); err != nil {
		return nil, fmt.Errorf("add refresh schedule %q: %w", schedule, err)
	}
	return refresher, nil
}

// Run starts the scheduler and blocks until ctx is done, then waits for a
// running job to finish
func (refresher *Refresher) Run(ctx context.Context) error {
	refresher.ctx = ctx
	refresher.scheduler.Start()
	defer func() {
		stopCtx := refresher.scheduler.Stop()
		<-stopCtx.Done()
	}()

	refresher.logger.Info("Rates refresher started")
	<-ctx.Done()
	refresher.logger.Info("Rates refresher stopped")
	return nil
}

func (refresher *Refresher) refresh(ctx context.Context) bool {
	if !refresher.target.State().Date.IsLatest() {
		refresher.logger.Debug("Session pinned to a historical date, skipping refresh")
		return false
	}

	refreshCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	if err := refresher.target.Refresh(refreshCtx); err != nil {
		refresher.logger.Warnf("Scheduled rates refresh failed: %v", err)
		return false
	}
	return true
}
