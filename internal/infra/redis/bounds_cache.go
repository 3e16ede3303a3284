package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/model"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/ports/repository"
)

var _ repository.BoundsCache = (*BoundsCache)(nil)

// BoundsCache caches the min/max profile id per gender. Everything here is
// best effort: a miss, a stale entry, or a Redis outage only changes how the
// pivot is drawn, never which profiles a user can see.
type BoundsCache struct {
	cli Client
	ttl time.Duration
}

func NewBoundsCache(cli Client, ttl time.Duration) *BoundsCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &BoundsCache{cli: cli, ttl: ttl}
}

func boundsKey(gender model.Gender) string {
	return fmt.Sprintf("profiles_bounds_%s", gender)
}

func (c *BoundsCache) Get(ctx context.Context, gender model.Gender) (model.Bounds, bool) {
	val, err := c.cli.Get(ctx, boundsKey(gender))
	if err != nil {
		return model.Bounds{}, false
	}
	var b model.Bounds
	if json.Unmarshal([]byte(val), &b) != nil {
		return model.Bounds{}, false
	}
	return b, b.Valid()
}

func (c *BoundsCache) Set(ctx context.Context, gender model.Gender, b model.Bounds) {
	bytes, err := json.Marshal(b)
	if err != nil {
		return
	}
	_ = c.cli.Set(ctx, boundsKey(gender), bytes, c.ttl)
}

func (c *BoundsCache) Invalidate(ctx context.Context, gender model.Gender) {
	_ = c.cli.Del(ctx, boundsKey(gender))
}
