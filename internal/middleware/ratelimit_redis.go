package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	redisclient "github.com/openclaw/wa-gateway-go/internal/redis"
)

const rateLimitWindow = 60 * time.Second

var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

local windowStart = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', windowStart)

local count = redis.call('ZCARD', key)

if count >= limit then
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local resetAt = 0
    if #oldest >= 2 then
        resetAt = tonumber(oldest[2]) + window
    else
        resetAt = now + window
    end
    return {0, 0, resetAt}
end

redis.call('ZADD', key, now, now .. '-' .. math.random())
redis.call('EXPIRE', key, window + 10)

local remaining = limit - count - 1
local resetAt = now + window

return {1, remaining, resetAt}
`)

// RedisRateLimiter shares the sliding window across gateway replicas.
// Redis errors fail open.
type RedisRateLimiter struct {
	client  redis.Scripter
	service string
}

func NewRedisRateLimiter(client redis.Scripter, service string) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, service: service}
}

func (rl *RedisRateLimiter) Check(ctx context.Context, key string, limit int) (allowed bool, remaining int, resetAt int64) {
	now := time.Now().Unix()
	fullKey := redisclient.RateLimitKey(rl.service, key)
	fallbackReset := now + int64(rateLimitWindow.Seconds())

	result, err := rateLimitScript.Run(ctx, rl.client, []string{fullKey}, now, int64(rateLimitWindow.Seconds()), limit).Int64Slice()
	if err != nil {
		log.Warn().Err(err).Str("client", key).Msg("redis rate limit check failed, allowing request")
		return true, limit - 1, fallbackReset
	}

	if len(result) != 3 {
		log.Warn().Str("client", key).Msg("unexpected redis rate limit result")
		return true, limit - 1, fallbackReset
	}

	return result[0] == 1, int(result[1]), result[2]
}
