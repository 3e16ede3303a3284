package repository

import (
	"context"
	"time"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/model"
)

// UserRepository owns the users table, including the push gate. The gate is a
// single conditional UPDATE so that concurrent schedulers can never push the
// same user past the cap; its affected-row count is the success signal.
type UserRepository interface {
	Register(ctx context.Context, userID int64, language string) error
	IsRegistered(ctx context.Context, userID int64) (bool, error)
	Activate(ctx context.Context, userID int64) error
	Deactivate(ctx context.Context, userID int64) error

	SetPreference(ctx context.Context, userID int64, lookingFor model.Gender) error
	GetPreference(ctx context.Context, userID int64) (*model.Gender, error)
	GetLanguage(ctx context.Context, userID int64) (string, error)

	// TouchLastPush records an outbound push or any inbound interaction, so
	// the cooldown also backs off from active conversations.
	TouchLastPush(ctx context.Context, userID int64, at time.Time) error

	// FindDue returns up to limit users eligible for a push at now, oldest
	// last_push first. Advisory only; TryMarkPushEnqueued re-checks atomically.
	FindDue(ctx context.Context, now time.Time, cap int, cooldown time.Duration, limit int) ([]model.DueUser, error)

	// TryMarkPushEnqueued atomically increments the daily counter and stamps
	// last_push iff the user is active, under the cap, and past the cooldown.
	TryMarkPushEnqueued(ctx context.Context, userID int64, now time.Time, cap int, cooldown time.Duration) (bool, error)

	// ResetDailyCounters zeroes every user's daily counter and returns the
	// number of affected rows.
	ResetDailyCounters(ctx context.Context) (int64, error)
}
