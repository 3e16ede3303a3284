package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/model"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/ports/repository"
)

var _ repository.ProfileRepository = (*ProfileRepo)(nil)

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) Bounds(ctx context.Context, gender model.Gender) (model.Bounds, error) {
	const q = `SELECT COALESCE(MIN(id), 0), COALESCE(MAX(id), 0) FROM profiles WHERE gender = $1;`
	var b model.Bounds
	if err := r.pool.QueryRow(ctx, q, string(gender)).Scan(&b.Min, &b.Max); err != nil {
		return model.Bounds{}, fmt.Errorf("profile bounds: %w", err)
	}
	return b, nil
}

// SelectUnseenRange runs one half of the two-phase pivot scan. Both halves
// are bounded (gender, id) index range scans with a seen-mark anti-join, so
// the cost does not grow with the size of the profiles table.
func (r *ProfileRepo) SelectUnseenRange(ctx context.Context, userID int64, gender model.Gender, pivot int64, limit int, dir repository.ScanDirection) ([]model.Profile, error) {
	if limit <= 0 {
		return nil, nil
	}
	const forward = `
SELECT p.id, p.file, p.gender, p.created_at
  FROM profiles p
  LEFT JOIN profiles_shown s ON s.profile_id = p.id AND s.user_id = $1
 WHERE p.gender = $2
   AND s.profile_id IS NULL
   AND p.id >= $3
 ORDER BY p.id ASC
 LIMIT $4;
`
	const wrap = `
SELECT p.id, p.file, p.gender, p.created_at
  FROM profiles p
  LEFT JOIN profiles_shown s ON s.profile_id = p.id AND s.user_id = $1
 WHERE p.gender = $2
   AND s.profile_id IS NULL
   AND p.id < $3
 ORDER BY p.id DESC
 LIMIT $4;
`
	q := forward
	if dir == repository.ScanWrap {
		q = wrap
	}
	rows, err := r.pool.Query(ctx, q, userID, string(gender), pivot, limit)
	if err != nil {
		return nil, fmt.Errorf("select unseen range: %w", err)
	}
	defer rows.Close()

	var out []model.Profile
	for rows.Next() {
		var p model.Profile
		var g string
		if err := rows.Scan(&p.ID, &p.File, &g, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p.Gender = model.Gender(g)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProfileRepo) MarkShown(ctx context.Context, userID, profileID int64) error {
	const q = `
INSERT INTO profiles_shown (user_id, profile_id, shown_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id, profile_id) DO UPDATE SET shown_at = now();
`
	if _, err := r.pool.Exec(ctx, q, userID, profileID); err != nil {
		return fmt.Errorf("mark shown: %w", err)
	}
	return nil
}

func (r *ProfileRepo) ClearShown(ctx context.Context, userID int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM profiles_shown WHERE user_id = $1;`, userID); err != nil {
		return fmt.Errorf("clear shown: %w", err)
	}
	return nil
}

func (r *ProfileRepo) CreateIfNotExists(ctx context.Context, file string, gender model.Gender) (int64, bool, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM profiles WHERE file = $1 AND gender = $2;`,
		file, string(gender)).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("lookup profile: %w", err)
	}

	const ins = `
INSERT INTO profiles (file, gender, created_at)
VALUES ($1, $2, now())
ON CONFLICT (file, gender) DO NOTHING
RETURNING id;
`
	err = r.pool.QueryRow(ctx, ins, file, string(gender)).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("insert profile: %w", err)
	}

	// Lost a race with a concurrent import; the row exists now.
	if err := r.pool.QueryRow(ctx,
		`SELECT id FROM profiles WHERE file = $1 AND gender = $2;`,
		file, string(gender)).Scan(&id); err != nil {
		return 0, false, fmt.Errorf("re-lookup profile: %w", err)
	}
	return id, false, nil
}
