package presence

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// HeartbeatKey is the sorted set holding user ids scored by last heartbeat.
const HeartbeatKey = "heartbeat:"

// RedisIndex mirrors heartbeats into a Redis sorted set so online counts do
// not hit the database.
type RedisIndex struct {
	client *redis.Client
}

// NewRedisIndex parses url, connects and pings.
func NewRedisIndex(ctx context.Context, url string) (*RedisIndex, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisIndex{client: client}, nil
}

// Touch records a heartbeat for userID at time at.
func (x *RedisIndex) Touch(ctx context.Context, userID string, at time.Time) error {
	return x.client.ZAdd(ctx, HeartbeatKey, redis.Z{Score: float64(at.Unix()), Member: userID}).Err()
}

// Remove drops userID from the index.
func (x *RedisIndex) Remove(ctx context.Context, userID string) error {
	return x.client.ZRem(ctx, HeartbeatKey, userID).Err()
}

// Count returns how many users have a heartbeat at or after since.
func (x *RedisIndex) Count(ctx context.Context, since time.Time) (int64, error) {
	return x.client.ZCount(ctx, HeartbeatKey, strconv.FormatInt(since.Unix(), 10), "+inf").Result()
}

// Expire removes heartbeats older than before.
func (x *RedisIndex) Expire(ctx context.Context, before time.Time) error {
	return x.client.ZRemRangeByScore(ctx, HeartbeatKey, "-inf", "("+strconv.FormatInt(before.Unix(), 10)).Err()
}

// Close closes the Redis connection.
func (x *RedisIndex) Close() error {
	return x.client.Close()
}
