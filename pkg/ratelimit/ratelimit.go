package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	extratelimit "github.com/vnmchuo/ratelimiter"
)

// Limiter is a thin wrapper around github.com/vnmchuo/ratelimiter. It
// throttles request bursts per client IP ahead of the daily quota check;
// the quota ledger stays the authoritative admission mechanism.
type Limiter struct {
	store extratelimit.Limiter
}

func NewLimiter(rdb *redis.Client, requestsPerMinute int64) *Limiter {
	store := extratelimit.NewRedisStore(rdb,
		extratelimit.WithLimit(int(requestsPerMinute)),
		extratelimit.WithWindow(time.Minute),
	)
	return &Limiter{store: store}
}

func NewTestLimiter(store extratelimit.Limiter) *Limiter {
	return &Limiter{store: store}
}

func (l *Limiter) Allow(ctx context.Context, ip string) (bool, error) {
	key := fmt.Sprintf("burst:ip:%s", ip)
	res, err := l.store.Allow(ctx, key)
	if err != nil {
		return false, err
	}
	return res.Allowed, nil
}
