package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/ports/repository"
)

var _ repository.ProcessedUpdateRepository = (*ProcessedUpdatesRepo)(nil)

// ProcessedUpdatesRepo is the append-only dedup set keyed by Telegram
// update_id.
type ProcessedUpdatesRepo struct {
	pool *pgxpool.Pool
}

func NewProcessedUpdatesRepo(pool *pgxpool.Pool) *ProcessedUpdatesRepo {
	return &ProcessedUpdatesRepo{pool: pool}
}

// TryMark inserts the update id. ON CONFLICT DO NOTHING makes the duplicate
// case a zero-row insert instead of an error; a raw unique violation from a
// concurrent writer is mapped the same way.
func (r *ProcessedUpdatesRepo) TryMark(ctx context.Context, updateID int64) (bool, error) {
	const q = `
INSERT INTO telegram_processed_updates (update_id, created_at)
VALUES ($1, now())
ON CONFLICT (update_id) DO NOTHING;
`
	tag, err := r.pool.Exec(ctx, q, updateID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return false, nil
		}
		return false, fmt.Errorf("mark processed update: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ProcessedUpdatesRepo) Purge(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays < 1 {
		olderThanDays = 1
	}
	const q = `DELETE FROM telegram_processed_updates WHERE created_at < now() - make_interval(days => $1);`
	tag, err := r.pool.Exec(ctx, q, olderThanDays)
	if err != nil {
		return 0, fmt.Errorf("purge processed updates: %w", err)
	}
	return tag.RowsAffected(), nil
}
