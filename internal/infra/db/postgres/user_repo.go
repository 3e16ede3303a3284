package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/model"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Register(ctx context.Context, userID int64, language string) error {
	const q = `
INSERT INTO users (user_id, language, status, created_at, updated_at)
VALUES ($1, $2, 1, now(), now())
ON CONFLICT (user_id) DO UPDATE
  SET language = EXCLUDED.language, updated_at = now();
`
	if _, err := r.pool.Exec(ctx, q, userID, language); err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	return nil
}

func (r *UserRepo) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1);`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepo) Activate(ctx context.Context, userID int64) error {
	return r.setStatus(ctx, userID, 1)
}

func (r *UserRepo) Deactivate(ctx context.Context, userID int64) error {
	return r.setStatus(ctx, userID, 0)
}

func (r *UserRepo) setStatus(ctx context.Context, userID int64, status int) error {
	const q = `UPDATE users SET status = $2, updated_at = now() WHERE user_id = $1;`
	if _, err := r.pool.Exec(ctx, q, userID, status); err != nil {
		return fmt.Errorf("set user status: %w", err)
	}
	return nil
}

func (r *UserRepo) SetPreference(ctx context.Context, userID int64, lookingFor model.Gender) error {
	const q = `UPDATE users SET looking_for = $2, updated_at = now() WHERE user_id = $1;`
	if _, err := r.pool.Exec(ctx, q, userID, string(lookingFor)); err != nil {
		return fmt.Errorf("set preference: %w", err)
	}
	return nil
}

func (r *UserRepo) GetPreference(ctx context.Context, userID int64) (*model.Gender, error) {
	var raw *string
	err := r.pool.QueryRow(ctx, `SELECT looking_for FROM users WHERE user_id = $1;`, userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get preference: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	g, ok := model.ParseGender(*raw)
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (r *UserRepo) GetLanguage(ctx context.Context, userID int64) (string, error) {
	var lang string
	err := r.pool.QueryRow(ctx, `SELECT language FROM users WHERE user_id = $1;`, userID).Scan(&lang)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("get language: %w", err)
	}
	return lang, nil
}

func (r *UserRepo) TouchLastPush(ctx context.Context, userID int64, at time.Time) error {
	const q = `UPDATE users SET last_push = $2, updated_at = $2 WHERE user_id = $1;`
	if _, err := r.pool.Exec(ctx, q, userID, at.UTC()); err != nil {
		return fmt.Errorf("touch last push: %w", err)
	}
	return nil
}

func (r *UserRepo) FindDue(ctx context.Context, now time.Time, cap int, cooldown time.Duration, limit int) ([]model.DueUser, error) {
	const q = `
SELECT user_id, language
  FROM users
 WHERE status = 1
   AND daily_push_count < $1
   AND (last_push IS NULL OR last_push <= $2)
 ORDER BY last_push ASC NULLS FIRST
 LIMIT $3;
`
	threshold := now.UTC().Add(-cooldown)
	rows, err := r.pool.Query(ctx, q, cap, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("find due users: %w", err)
	}
	defer rows.Close()

	var due []model.DueUser
	for rows.Next() {
		var u model.DueUser
		if err := rows.Scan(&u.ID, &u.Language); err != nil {
			return nil, fmt.Errorf("scan due user: %w", err)
		}
		due = append(due, u)
	}
	return due, rows.Err()
}

// TryMarkPushEnqueued is the push gate. The precondition lives in the WHERE
// clause and the effect in the SET clause of one statement, so two schedulers
// racing on the same user can never both observe success past the cap.
func (r *UserRepo) TryMarkPushEnqueued(ctx context.Context, userID int64, now time.Time, cap int, cooldown time.Duration) (bool, error) {
	const q = `
UPDATE users
   SET daily_push_count = daily_push_count + 1,
       last_push = $2,
       updated_at = $2
 WHERE user_id = $1
   AND status = 1
   AND daily_push_count < $3
   AND (last_push IS NULL OR last_push <= $4);
`
	ts := now.UTC()
	tag, err := r.pool.Exec(ctx, q, userID, ts, cap, ts.Add(-cooldown))
	if err != nil {
		return false, fmt.Errorf("mark push enqueued: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *UserRepo) ResetDailyCounters(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET daily_push_count = 0 WHERE daily_push_count <> 0;`)
	if err != nil {
		return 0, fmt.Errorf("reset daily counters: %w", err)
	}
	return tag.RowsAffected(), nil
}
