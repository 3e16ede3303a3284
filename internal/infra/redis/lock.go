package redis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain"
)

// Locker serializes whole-job execution across process instances. The TTL
// must exceed the expected job duration so a second instance cannot start
// while the first still runs.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

var _ Locker = (*RedisLocker)(nil)

type RedisLocker struct {
	cli Client
}

func NewLocker(cli Client) *RedisLocker {
	return &RedisLocker{cli: cli}
}

// TryLock attempts a single SetNX acquire. Contention returns ErrLockHeld;
// jobs treat that as "another instance is running" and exit cleanly.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := l.cli.SetNX(ctx, key, token, ttl)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrLockHeld
	}
	return token, nil
}

const luaUnlock = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`

// Unlock releases the lock only when the token still matches, so an expired
// lock re-acquired by another instance is never deleted from under it.
func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	return l.cli.Eval(ctx, luaUnlock, []string{key}, token)
}
