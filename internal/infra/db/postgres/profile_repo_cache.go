package postgres

import (
	"context"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/model"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/ports/repository"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/metrics"
)

var _ repository.ProfileRepository = (*profileRepoCacheDecorator)(nil)

// profileRepoCacheDecorator caches category bounds and invalidates them when
// an import creates a new profile, so fresh ids become reachable by the
// pivot draw. The cache is advisory; every other call passes through.
type profileRepoCacheDecorator struct {
	inner  repository.ProfileRepository
	bounds repository.BoundsCache
}

func NewProfileRepoCacheDecorator(inner repository.ProfileRepository, bounds repository.BoundsCache) repository.ProfileRepository {
	return &profileRepoCacheDecorator{inner: inner, bounds: bounds}
}

func (d *profileRepoCacheDecorator) Bounds(ctx context.Context, gender model.Gender) (model.Bounds, error) {
	if b, ok := d.bounds.Get(ctx, gender); ok {
		metrics.IncCacheRequest("bounds", "hit")
		return b, nil
	}
	metrics.IncCacheRequest("bounds", "miss")
	b, err := d.inner.Bounds(ctx, gender)
	if err != nil {
		return model.Bounds{}, err
	}
	if b.Valid() {
		d.bounds.Set(ctx, gender, b)
	}
	return b, nil
}

func (d *profileRepoCacheDecorator) SelectUnseenRange(ctx context.Context, userID int64, gender model.Gender, pivot int64, limit int, dir repository.ScanDirection) ([]model.Profile, error) {
	return d.inner.SelectUnseenRange(ctx, userID, gender, pivot, limit, dir)
}

func (d *profileRepoCacheDecorator) MarkShown(ctx context.Context, userID, profileID int64) error {
	return d.inner.MarkShown(ctx, userID, profileID)
}

func (d *profileRepoCacheDecorator) ClearShown(ctx context.Context, userID int64) error {
	return d.inner.ClearShown(ctx, userID)
}

func (d *profileRepoCacheDecorator) CreateIfNotExists(ctx context.Context, file string, gender model.Gender) (int64, bool, error) {
	id, created, err := d.inner.CreateIfNotExists(ctx, file, gender)
	if err == nil && created {
		d.bounds.Invalidate(ctx, gender)
	}
	return id, created, err
}
