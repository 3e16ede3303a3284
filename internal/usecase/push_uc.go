package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/config"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/model"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/ports/mq"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/ports/repository"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/logging"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/metrics"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/redis"
)

var _ PushUseCase = (*pushUC)(nil)

// PushUseCase is the scheduler side of push delivery: it finds eligible
// users, claims them through the atomic gate, and enqueues prepared payloads.
type PushUseCase interface {
	// EnqueueDue runs one scheduler pass and returns how many pushes it
	// enqueued. A held lock or a closed window is a clean no-op.
	EnqueueDue(ctx context.Context, now time.Time) (int, error)
}

// PushComposer prepares the outbound payloads. Implemented by the telegram
// payload factory; an interface here keeps the scheduler testable.
type PushComposer interface {
	PreferencePrompt(lang string, chatID int64) model.PushPayload
	ProfileCard(lang string, chatID int64, p model.Profile) model.PushPayload
}

type pushUC struct {
	users    repository.UserRepository
	selector ProfileUseCase
	pub      mq.Publisher
	composer PushComposer
	locker   redis.Locker
	cfg      config.PushConfig
	lockKey  string
	log      *zerolog.Logger
}

func NewPushUseCase(
	users repository.UserRepository,
	selector ProfileUseCase,
	pub mq.Publisher,
	composer PushComposer,
	locker redis.Locker,
	cfg config.PushConfig,
	botID string,
	logger *zerolog.Logger,
) *pushUC {
	return &pushUC{
		users:    users,
		selector: selector,
		pub:      pub,
		composer: composer,
		locker:   locker,
		cfg:      cfg,
		lockKey:  fmt.Sprintf("push_enqueue_lock_%s", botID),
		log:      logging.Component(logger, "PushUC"),
	}
}

// withinWindow reports whether hour falls inside [start, end), where a start
// after the end means the window spans midnight.
func withinWindow(hour, start, end int) bool {
	if start == end {
		return true
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

func (u *pushUC) EnqueueDue(ctx context.Context, now time.Time) (int, error) {
	if !withinWindow(now.UTC().Hour(), u.cfg.WindowStartHour, u.cfg.WindowEndHour) {
		u.log.Debug().Int("hour", now.UTC().Hour()).Msg("outside push window")
		return 0, nil
	}

	token, err := u.locker.TryLock(ctx, u.lockKey, u.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			u.log.Info().Msg("another scheduler instance holds the lock, skipping run")
			return 0, nil
		}
		return 0, fmt.Errorf("acquire scheduler lock: %w", err)
	}
	defer func() {
		if err := u.locker.Unlock(context.WithoutCancel(ctx), u.lockKey, token); err != nil {
			u.log.Warn().Err(err).Msg("failed to release scheduler lock")
		}
	}()

	enqueued := 0
	for batch := 0; batch < u.cfg.MaxBatches; batch++ {
		due, err := u.users.FindDue(ctx, now, u.cfg.DailyCap, u.cfg.Cooldown, u.cfg.BatchSize)
		if err != nil {
			return enqueued, fmt.Errorf("find due users: %w", err)
		}
		if len(due) == 0 {
			break
		}
		for _, user := range due {
			n, err := u.enqueueFor(ctx, user, now)
			if err != nil {
				u.log.Error().Int64("user_id", user.ID).Err(err).Msg("push enqueue failed, continuing batch")
				continue
			}
			enqueued += n
		}
	}
	u.log.Info().Int("enqueued", enqueued).Msg("scheduler pass finished")
	return enqueued, nil
}

// enqueueFor claims one user through the gate and enqueues at most one push.
// Losing the gate race is an ordinary outcome, not an error.
func (u *pushUC) enqueueFor(ctx context.Context, user model.DueUser, now time.Time) (int, error) {
	claimed, err := u.users.TryMarkPushEnqueued(ctx, user.ID, now, u.cfg.DailyCap, u.cfg.Cooldown)
	if err != nil {
		return 0, fmt.Errorf("push gate: %w", err)
	}
	if !claimed {
		return 0, nil
	}

	pref, err := u.users.GetPreference(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("load preference: %w", err)
	}
	if pref == nil {
		if err := u.pub.PublishPush(ctx, u.composer.PreferencePrompt(user.Language, user.ID)); err != nil {
			return 0, fmt.Errorf("publish preference prompt: %w", err)
		}
		metrics.IncPushEnqueued("prompt")
		return 1, nil
	}

	profile, err := u.nextProfileFor(ctx, user.ID, *pref)
	if err != nil {
		return 0, err
	}
	if profile == nil {
		u.log.Warn().Int64("user_id", user.ID).Str("gender", string(*pref)).Msg("no profiles available, push slot spent")
		return 0, nil
	}

	if err := u.pub.PublishPush(ctx, u.composer.ProfileCard(user.Language, user.ID, *profile)); err != nil {
		return 0, fmt.Errorf("publish profile card: %w", err)
	}
	if err := u.selector.MarkShown(ctx, user.ID, profile.ID); err != nil {
		return 1, fmt.Errorf("mark profile shown: %w", err)
	}
	metrics.IncPushEnqueued("profile")
	return 1, nil
}

// nextProfileFor picks one unseen profile, resetting the seen pool once when
// the user has exhausted it.
func (u *pushUC) nextProfileFor(ctx context.Context, userID int64, gender model.Gender) (*model.Profile, error) {
	batch, err := u.selector.UnseenBatch(ctx, userID, gender, 1)
	if err != nil {
		return nil, fmt.Errorf("select unseen: %w", err)
	}
	if len(batch) == 0 {
		if err := u.selector.ClearShown(ctx, userID); err != nil {
			return nil, fmt.Errorf("reset seen pool: %w", err)
		}
		metrics.IncSelectorReset()
		if batch, err = u.selector.UnseenBatch(ctx, userID, gender, 1); err != nil {
			return nil, fmt.Errorf("select unseen after reset: %w", err)
		}
	}
	if len(batch) == 0 {
		return nil, nil
	}
	return &batch[0], nil
}
