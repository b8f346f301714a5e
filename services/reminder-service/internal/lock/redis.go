package lock

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisCycleLock is a best-effort leader lock so that only one service
// replica runs a scan cycle at a time. The value is a per-acquire token and
// release is compare-and-delete, so an expired holder cannot release a lock
// that has since been re-acquired by someone else.
type RedisCycleLock struct {
	rdb *redis.Client
	key string
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

func NewRedisCycleLock(rdb *redis.Client, key string) *RedisCycleLock {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "reminderd:scan-cycle"
	}
	return &RedisCycleLock{rdb: rdb, key: key}
}

func (l *RedisCycleLock) TryAcquire(ctx context.Context, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.rdb, []string{l.key}, token).Err()
	}
	return release, true, nil
}

// ReadyCheck pings the lock backend for /readyz.
func ReadyCheck(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}
