package favorites

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"quotedeck/internal/config"
	"quotedeck/internal/logger"
)

// Scheduler is an optional background probe: while degraded it periodically
// drives the same serialized Reconnect path a manual retry would. Disabled
// by default; the manual reconnect stays the primary trigger.
type Scheduler struct {
	cfg       config.SchedulerConfig
	syncer    *Synchronizer
	principal func() string
	cron      *cron.Cron
	entryID   cron.EntryID
}

func NewScheduler(cfg config.SchedulerConfig, syncer *Synchronizer, principal func() string) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		syncer:    syncer,
		principal: principal,
		cron:      cron.New(),
	}
}

func (s *Scheduler) Start() {
	if !s.cfg.Enabled {
		logger.Log.Info("Reconnect scheduler is disabled")
		return
	}

	logger.Log.Info("Starting reconnect scheduler", zap.String("interval", s.cfg.Interval))

	id, err := s.cron.AddFunc(s.cfg.Interval, s.tick)
	if err != nil {
		logger.Log.Error("Failed to schedule reconnect probe", zap.Error(err))
		return
	}

	s.entryID = id
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) tick() {
	if !s.syncer.Status().Degraded {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.syncer.Reconnect(ctx, s.principal()); err != nil {
		logger.Log.Info("Scheduled reconnect attempt failed", zap.Error(err))
		return
	}
	logger.Log.Info("Scheduled reconnect succeeded")
}
