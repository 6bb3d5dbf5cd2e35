// Package ratelimit throttles the code-issuing endpoints with a token bucket
// kept in Redis, so every API instance shares the same budget.
package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const tokenBucketLua = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

if rate <= 0 or burst <= 0 then
  return {1, 0}
end

local data = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(data[1])
local ts = tonumber(data[2])
if tokens == nil then
  tokens = burst
end
if ts == nil then
  ts = now
end

local delta = math.max(0, now - ts)
tokens = math.min(burst, tokens + (delta * rate) / 1000.0)

local allowed = tokens >= requested
local wait_ms = 0
if allowed then
  tokens = tokens - requested
else
  wait_ms = math.ceil((requested - tokens) * 1000.0 / rate)
end

redis.call("HMSET", key, "tokens", tokens, "ts", now)
redis.call("PEXPIRE", key, math.ceil((burst / rate) * 1000.0 * 2))

return {allowed and 1 or 0, wait_ms}
`

// Limiter is a per-key token bucket. A nil *Limiter allows everything, which
// is what main wires when REDIS_ADDR is unset.
type Limiter struct {
	rdb    *redis.Client
	prefix string
	rate   float64
	burst  float64
	logger zerolog.Logger
	script *redis.Script
}

func New(rdb *redis.Client, logger zerolog.Logger, prefix string, rate, burst float64) *Limiter {
	if prefix == "" {
		prefix = "marketplace:ratelimit"
	}
	return &Limiter{
		rdb:    rdb,
		prefix: prefix,
		rate:   rate,
		burst:  burst,
		logger: logger,
		script: redis.NewScript(tokenBucketLua),
	}
}

// Allow takes one token from the bucket of key. When the bucket is empty it
// returns false and how long until the next token.
//
// Redis failures fail open: the request is allowed and the error logged.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, time.Duration) {
	if l == nil || l.rdb == nil || l.rate <= 0 || l.burst <= 0 {
		return true, 0
	}

	now := time.Now().UnixMilli()
	res, err := l.script.Run(ctx, l.rdb, []string{l.prefix + ":" + key}, l.rate, l.burst, now, 1).Result()
	if err != nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("ratelimit eval failed, allowing request")
		return true, 0
	}

	values, ok := res.([]interface{})
	if !ok || len(values) < 2 {
		l.logger.Warn().Str("key", key).Msgf("ratelimit invalid result %v", res)
		return true, 0
	}
	return toInt64(values[0]) == 1, time.Duration(toInt64(values[1])) * time.Millisecond
}

func toInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if parsed, err := strconv.ParseInt(t, 10, 64); err == nil {
			return parsed
		}
	}
	return 0
}
