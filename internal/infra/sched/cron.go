package sched

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/logging"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/usecase"
)

// Runner drives the periodic jobs from a single process. Every job is also
// safe to fire from several instances at once because the use cases guard
// themselves with redis locks.
type Runner struct {
	cron *cron.Cron
	log  *zerolog.Logger
}

func NewRunner(push usecase.PushUseCase, maint usecase.MaintenanceUseCase, purgeDays int, logger *zerolog.Logger) (*Runner, error) {
	log := logging.Component(logger, "CronRunner")
	c := cron.New()

	// Scheduler pass every minute; the push window and the lock decide
	// whether a given firing does any work.
	if _, err := c.AddFunc("* * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Second)
		defer cancel()
		if _, err := push.EnqueueDue(ctx, time.Now().UTC()); err != nil {
			log.Error().Err(err).Msg("enqueue-due job failed")
		}
	}); err != nil {
		return nil, err
	}

	// Shortly past midnight UTC so a late-running scheduler pass from the
	// previous day is already finished.
	if _, err := c.AddFunc("5 0 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := maint.ResetDailyCounters(ctx); err != nil {
			log.Error().Err(err).Msg("reset-daily job failed")
		}
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc("30 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := maint.PurgeProcessedUpdates(ctx, purgeDays); err != nil {
			log.Error().Err(err).Msg("purge-updates job failed")
		}
	}); err != nil {
		return nil, err
	}

	return &Runner{cron: c, log: log}, nil
}

func (r *Runner) Start() {
	r.log.Info().Msg("cron runner started")
	r.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
	r.log.Info().Msg("cron runner stopped")
}
