package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/hailinhs/alumnisite/internal/config"
)

const jobTimeout = time.Minute

type StatusRefresher interface {
	RefreshStatuses(ctx context.Context) (int, error)
}

// Scheduler keeps stored event statuses in step with the clock.
type Scheduler struct {
	cron      *cron.Cron
	refresher StatusRefresher
	log       *logrus.Entry
}

func New(cfg config.Scheduler, loc *time.Location, r StatusRefresher, l *logrus.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		refresher: r,
		log:       l.WithField("from", "scheduler"),
	}
	if _, err := s.cron.AddFunc(cfg.StatusRefreshCron, s.RefreshNow); err != nil {
		return nil, fmt.Errorf("status_refresh_cron %q: %w", cfg.StatusRefreshCron, err)
	}
	return s, nil
}

// Start runs one refresh right away, then hands over to cron.
func (s *Scheduler) Start() {
	s.RefreshNow()
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) RefreshNow() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	changed, err := s.refresher.RefreshStatuses(ctx)
	if err != nil {
		s.log.WithError(err).Error("event status refresh failed")
		return
	}
	if changed > 0 {
		s.log.WithField("changed", changed).Debug("event statuses refreshed")
	}
}
