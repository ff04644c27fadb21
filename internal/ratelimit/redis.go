package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares fixed-window counters across replicas. The first hit of a
// window creates the key with a TTL; later hits only increment it.
type Redis struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedis(rdb *redis.Client, prefix string, limit int, window time.Duration) *Redis {
	return &Redis{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	k := r.prefix + key

	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, r.window)
	ttl := pipe.PTTL(ctx, k)

	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", k, err)
	}

	if incr.Val() <= int64(r.limit) {
		return Decision{Allowed: true}, nil
	}

	retry := ttl.Val()
	if retry < 0 {
		retry = r.window
	}
	return Decision{Allowed: false, RetryAfter: retry}, nil
}
