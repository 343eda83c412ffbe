package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

func Initialize(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Raw exposes the underlying client for components that manage their
// own key space, such as the dispatch queue.
func (c *Client) Raw() *redis.Client {
	return c.rdb
}

// deleteIfEquals removes the key only while it still holds the expected
// value, so two concurrent verifications cannot both consume one challenge.
var deleteIfEquals = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// OTP challenge storage. One live challenge per phone; a new challenge
// overwrites the previous one.

func (c *Client) SetChallenge(ctx context.Context, phone, code string, ttl time.Duration) error {
	return c.rdb.Set(ctx, "otp:"+phone, code, ttl).Err()
}

// GetChallenge returns the live code for phone, or "" when none exists.
func (c *Client) GetChallenge(ctx context.Context, phone string) (string, error) {
	val, err := c.rdb.Get(ctx, "otp:"+phone).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get OTP challenge: %w", err)
	}
	return val, nil
}

// ConsumeChallenge deletes the challenge if it still equals code. It
// reports whether this caller won the delete.
func (c *Client) ConsumeChallenge(ctx context.Context, phone, code string) (bool, error) {
	n, err := deleteIfEquals.Run(ctx, c.rdb, []string{"otp:" + phone}, code).Int()
	if err != nil {
		return false, fmt.Errorf("failed to consume OTP challenge: %w", err)
	}
	return n == 1, nil
}

// Verification attempt counters. The counter expires with the lockout
// window and is cleared on successful verification.

// incrAttempt bumps the counter and starts the lockout window in the same
// round trip, so a crash cannot leave a counter with no expiry.
var incrAttempt = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return n
`)

func (c *Client) IncrAttempts(ctx context.Context, phone string, window time.Duration) (int64, error) {
	n, err := incrAttempt.Run(ctx, c.rdb, []string{"otp:attempts:" + phone}, int64(window.Seconds())).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to count OTP attempt: %w", err)
	}
	return n, nil
}

func (c *Client) ClearAttempts(ctx context.Context, phone string) error {
	return c.rdb.Del(ctx, "otp:attempts:"+phone).Err()
}

// Close Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
