package disputes

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/xam-dev-ux/BaseReview/pkg/logger"
)

// defaultSweepSchedule checks for lapsed disputes once a minute.
const defaultSweepSchedule = "@every 1m"

// Sweeper periodically expires disputes whose period lapsed without a
// ruling. It implements system.Service.
type Sweeper struct {
	service  *Service
	log      *logger.Logger
	schedule string
	cron     *cron.Cron
}

// NewSweeper builds a sweeper on the default schedule.
func NewSweeper(service *Service, log *logger.Logger) *Sweeper {
	if log == nil {
		log = logger.NewDefault("dispute-sweeper")
	}
	return &Sweeper{service: service, log: log, schedule: defaultSweepSchedule}
}

// WithSchedule overrides the cron schedule.
func (s *Sweeper) WithSchedule(schedule string) *Sweeper {
	s.schedule = schedule
	return s
}

// Name implements system.Service.
func (s *Sweeper) Name() string { return "dispute-sweeper" }

// Start schedules the sweep.
func (s *Sweeper) Start(context.Context) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.schedule, func() {
		n, err := s.service.SweepExpired(context.Background())
		if err != nil {
			s.log.WithError(err).Warn("dispute sweep failed")
			return
		}
		if n > 0 {
			s.log.Infof("expired %d disputes", n)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	return nil
}
