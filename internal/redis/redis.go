package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Client is the Redis-backed key-value store for preferences and cached timings.
type Client struct {
	rdb    *redis.Client
	prefix string
}

func NewClient(address, username, password string, db int, prefix string) *Client {
	return &Client{
		rdb: redis.NewClient(&redis.Options{
			Addr:     address,
			Username: username,
			Password: password,
			DB:       db,
		}),
		prefix: prefix,
	}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Get returns ok=false for a missing key instead of an error.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.rdb.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("redis get failed")
		return "", false, err
	}
	return v, true, nil
}

func (c *Client) Set(ctx context.Context, key, value string) error {
	return c.SetWithTTL(ctx, key, value, 0)
}

func (c *Client) SetWithTTL(ctx context.Context, key, value string, expiration time.Duration) error {
	if err := c.rdb.Set(ctx, c.prefix+key, value, expiration).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to add key to redis")
		return err
	}
	return nil
}
