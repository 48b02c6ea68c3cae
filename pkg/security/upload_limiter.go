package security

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// UploadLimiter caps how many files an account may upload per minute and per
// day using Redis sorted-set sliding windows. Without Redis it allows all.
type UploadLimiter struct {
	client       *goredis.Client
	maxPerMinute int
	maxPerDay    int
	now          func() time.Time
}

// KEYS[1] = window key, ARGV[1] = limit, ARGV[2] = window seconds,
// ARGV[3] = now (unix seconds). Returns 1 if allowed, 0 if limited.
const uploadRateLimitScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

local count = redis.call('ZCARD', key)
if count >= limit then
    return 0
end

redis.call('ZADD', key, now, now .. '-' .. math.random(1000000))
redis.call('EXPIRE', key, window)
return 1
`

// NewUploadLimiter defaults to 10 uploads/min and 50 uploads/day per account.
func NewUploadLimiter(client *goredis.Client, perMin, perDay int) *UploadLimiter {
	if perMin <= 0 {
		perMin = 10
	}
	if perDay <= 0 {
		perDay = 50
	}
	return &UploadLimiter{
		client:       client,
		maxPerMinute: perMin,
		maxPerDay:    perDay,
		now:          time.Now,
	}
}

// AllowUpload returns whether the account may upload now and, if not, how
// many seconds to wait. Redis errors fail open and are returned for logging.
func (ul *UploadLimiter) AllowUpload(ctx context.Context, accountID string) (bool, int, error) {
	if ul == nil || ul.client == nil {
		return true, 0, nil
	}
	now := ul.now().Unix()

	allowed, err := ul.checkLimit(ctx, "ratelimit:upload:min:"+accountID, ul.maxPerMinute, 60, now)
	if err != nil {
		return true, 0, fmt.Errorf("upload limit check failed: %w", err)
	}
	if !allowed {
		return false, 60, nil
	}

	allowed, err = ul.checkLimit(ctx, "ratelimit:upload:day:"+accountID, ul.maxPerDay, 86400, now)
	if err != nil {
		return true, 0, fmt.Errorf("upload limit check failed: %w", err)
	}
	if !allowed {
		return false, 3600, nil
	}
	return true, 0, nil
}

func (ul *UploadLimiter) checkLimit(ctx context.Context, key string, limit, window int, now int64) (bool, error) {
	result, err := ul.client.Eval(ctx, uploadRateLimitScript, []string{key}, limit, window, now).Result()
	if err != nil {
		return false, err
	}
	allowed, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected result type from rate limit script")
	}
	return allowed == 1, nil
}
