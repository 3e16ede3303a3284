package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/ports/repository"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/logging"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/redis"
)

var _ MaintenanceUseCase = (*maintenanceUC)(nil)

// MaintenanceUseCase groups the periodic housekeeping jobs.
type MaintenanceUseCase interface {
	// ResetDailyCounters zeroes every user's push counter. Guarded by a lock
	// so overlapping cron firings run it once per day.
	ResetDailyCounters(ctx context.Context) (int64, error)

	// PurgeProcessedUpdates drops dedup records older than days.
	PurgeProcessedUpdates(ctx context.Context, days int) (int64, error)
}

const (
	resetLockTTL     = 5 * time.Minute
	defaultPurgeDays = 2
)

type maintenanceUC struct {
	users   repository.UserRepository
	updates repository.ProcessedUpdateRepository
	locker  redis.Locker
	lockKey string
	log     *zerolog.Logger
}

func NewMaintenanceUseCase(
	users repository.UserRepository,
	updates repository.ProcessedUpdateRepository,
	locker redis.Locker,
	botID string,
	logger *zerolog.Logger,
) *maintenanceUC {
	return &maintenanceUC{
		users:   users,
		updates: updates,
		locker:  locker,
		lockKey: fmt.Sprintf("push_reset_daily_counter_lock_%s", botID),
		log:     logging.Component(logger, "MaintenanceUC"),
	}
}

func (u *maintenanceUC) ResetDailyCounters(ctx context.Context) (int64, error) {
	token, err := u.locker.TryLock(ctx, u.lockKey, resetLockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			u.log.Info().Msg("daily reset already running elsewhere, skipping")
			return 0, nil
		}
		return 0, fmt.Errorf("acquire reset lock: %w", err)
	}
	defer func() {
		if err := u.locker.Unlock(context.WithoutCancel(ctx), u.lockKey, token); err != nil {
			u.log.Warn().Err(err).Msg("failed to release reset lock")
		}
	}()

	affected, err := u.users.ResetDailyCounters(ctx)
	if err != nil {
		return 0, fmt.Errorf("reset daily counters: %w", err)
	}
	u.log.Info().Int64("users", affected).Msg("daily push counters reset")
	return affected, nil
}

func (u *maintenanceUC) PurgeProcessedUpdates(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = defaultPurgeDays
	}
	deleted, err := u.updates.Purge(ctx, days)
	if err != nil {
		return 0, fmt.Errorf("purge processed updates: %w", err)
	}
	u.log.Info().Int64("deleted", deleted).Int("older_than_days", days).Msg("processed updates purged")
	return deleted, nil
}
