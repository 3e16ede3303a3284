package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/model"
)

// BatchCache holds the remainder of a selected profile batch per user, so
// rapid like/dislike taps don't hit the selector on every step. Losing an
// entry is harmless: the selector re-picks, and seen marks keep results
// duplicate free.
type BatchCache struct {
	cli Client
	ttl time.Duration
}

func NewBatchCache(cli Client, ttl time.Duration) *BatchCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &BatchCache{cli: cli, ttl: ttl}
}

func batchKey(userID int64, gender model.Gender) string {
	return fmt.Sprintf("profile_batch_%d_%s", userID, gender)
}

// Pop removes and returns the first pending profile, refreshing the TTL of
// the remainder.
func (c *BatchCache) Pop(ctx context.Context, userID int64, gender model.Gender) (*model.Profile, bool) {
	val, err := c.cli.Get(ctx, batchKey(userID, gender))
	if err != nil {
		return nil, false
	}
	var batch []model.Profile
	if json.Unmarshal([]byte(val), &batch) != nil || len(batch) == 0 {
		return nil, false
	}
	head := batch[0]
	c.Put(ctx, userID, gender, batch[1:])
	return &head, true
}

func (c *BatchCache) Put(ctx context.Context, userID int64, gender model.Gender, batch []model.Profile) {
	key := batchKey(userID, gender)
	if len(batch) == 0 {
		_ = c.cli.Del(ctx, key)
		return
	}
	bytes, err := json.Marshal(batch)
	if err != nil {
		return
	}
	_ = c.cli.Set(ctx, key, bytes, c.ttl)
}
