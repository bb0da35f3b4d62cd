package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis shares windows between API instances. The first hit of a window
// sets the key's expiry.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: "ratelimit:"}
}

func (r *Redis) Allow(ctx context.Context, p Policy, key string) (Decision, error) {
	k := r.prefix + p.Name + ":" + key

	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("incr %s: %w", k, err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, k, p.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("expire %s: %w", k, err)
		}
	}

	ttl, err := r.client.TTL(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("ttl %s: %w", k, err)
	}
	if ttl < 0 {
		// A previous expiry was lost; start the window over.
		if err := r.client.Expire(ctx, k, p.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("expire %s: %w", k, err)
		}
		ttl = p.Window
	}
	return decide(p, count, ttl), nil
}
