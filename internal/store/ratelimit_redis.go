package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/items-api/internal/ratelimit"
)

// hitScript opens or reuses the window stored in the hash at KEYS[1] and counts a hit
// when fewer than ARGV[1] were counted. ARGV[2] is the window length in milliseconds.
// It returns {allowed, count, start_ms}. The server clock is used so that all
// instances agree on window boundaries.
var hitScript = redis.NewScript(`
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)

local start = tonumber(redis.call('HGET', KEYS[1], 'start'))
local count = tonumber(redis.call('HGET', KEYS[1], 'count'))
if start == nil or count == nil or now - start >= window then
  start = now
  count = 0
end

local allowed = 0
if count < limit then
  count = count + 1
  allowed = 1
end

redis.call('HSET', KEYS[1], 'start', start, 'count', count)
redis.call('PEXPIRE', KEYS[1], start + window - now)

return {allowed, count, start}
`)

// RateLimitRedisStore is a Redis implementation of ratelimit.Store.
// Windows are shared by every instance using the same Redis.
type RateLimitRedisStore struct {
	client *redis.Client
	prefix string
}

// NewRateLimitRedisStore creates a new Redis-backed rate limit store.
func NewRateLimitRedisStore(client *redis.Client) *RateLimitRedisStore {
	return &RateLimitRedisStore{
		client: client,
		prefix: "ratelimit:",
	}
}

func (s *RateLimitRedisStore) Hit(
	ctx context.Context, key string, limit int64, window time.Duration,
) (ratelimit.Window, error) {
	res, err := hitScript.Run(ctx, s.client, []string{s.prefix + key}, limit, window.Milliseconds()).Int64Slice()
	if err != nil {
		return ratelimit.Window{}, fmt.Errorf("rate limit hit: %w", err)
	}

	if len(res) != 3 {
		return ratelimit.Window{}, fmt.Errorf("rate limit hit: unexpected reply %v", res)
	}

	return ratelimit.Window{
		Allowed: res[0] == 1,
		Count:   res[1],
		Start:   time.UnixMilli(res[2]),
	}, nil
}

// Reset deletes every window under the store prefix.
func (s *RateLimitRedisStore) Reset(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan rate limit keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	return s.client.Del(ctx, keys...).Err()
}

// Compile-time check.
var _ ratelimit.Store = (*RateLimitRedisStore)(nil)
