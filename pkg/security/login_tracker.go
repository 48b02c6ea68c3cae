package security

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LoginTrackerConfig holds configuration for login tracking
type LoginTrackerConfig struct {
	MaxAttempts   int           // failed attempts per email before a block
	MaxIPAttempts int           // failed attempts per client IP before a block
	AttemptWindow time.Duration // how long failed attempts are remembered
	BlockDuration time.Duration // how long a block lasts
	UseIPTracking bool          // also count and block by client IP
}

// DefaultLoginTrackerConfig returns sensible defaults
func DefaultLoginTrackerConfig() LoginTrackerConfig {
	return LoginTrackerConfig{
		MaxAttempts:   5,
		MaxIPAttempts: 20,
		AttemptWindow: 15 * time.Minute,
		BlockDuration: 15 * time.Minute,
		UseIPTracking: true,
	}
}

// LoginTracker counts failed logins in Redis and blocks repeat offenders.
// Without a Redis client every method is a no-op that never blocks.
type LoginTracker struct {
	client *goredis.Client
	config LoginTrackerConfig
	logger *SecurityLogger
}

func NewLoginTracker(client *goredis.Client, config LoginTrackerConfig, logger *SecurityLogger) *LoginTracker {
	if logger == nil {
		logger = NopLogger()
	}
	return &LoginTracker{client: client, config: config, logger: logger}
}

// Redis key patterns
const (
	failLoginUserPrefix    = "fail:login:user:"
	failLoginIPPrefix      = "fail:login:ip:"
	blockedLoginUserPrefix = "blocked:login:user:"
	blockedLoginIPPrefix   = "blocked:login:ip:"
)

// KEYS[1] = counter key, ARGV[1] = TTL in seconds. Returns the new count.
const incrWithTTLScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return count
`

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsBlocked checks if the given email or IP is currently blocked
func (lt *LoginTracker) IsBlocked(ctx context.Context, email, ip string) (bool, error) {
	if lt.client == nil {
		return false, nil
	}

	keys := []string{blockedLoginUserPrefix + normalizeEmail(email)}
	if lt.config.UseIPTracking && ip != "" {
		keys = append(keys, blockedLoginIPPrefix+ip)
	}
	exists, err := lt.client.Exists(ctx, keys...).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check login block: %w", err)
	}
	return exists > 0, nil
}

// RecordFailedAttempt counts a failure against the email and the client IP.
// Each counter blocks its own subject once it reaches its limit. Returns
// whether the caller is now blocked and the email's current count.
func (lt *LoginTracker) RecordFailedAttempt(ctx context.Context, email string, meta RequestMeta) (bool, int, error) {
	lt.logger.LogLoginFailed(ctx, email, meta, "invalid_credentials")
	if lt.client == nil {
		return false, 0, nil
	}

	email = normalizeEmail(email)
	ttlSeconds := int(lt.config.AttemptWindow.Seconds())

	userCount, err := lt.atomicIncrement(ctx, failLoginUserPrefix+email, ttlSeconds)
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment user counter: %w", err)
	}
	blocked := false
	if userCount >= lt.config.MaxAttempts {
		if err := lt.createBlock(ctx, blockedLoginUserPrefix+email, "email", email, meta); err != nil {
			return true, userCount, err
		}
		blocked = true
	}

	if lt.config.UseIPTracking && meta.IP != "" && lt.config.MaxIPAttempts > 0 {
		ipCount, err := lt.atomicIncrement(ctx, failLoginIPPrefix+meta.IP, ttlSeconds)
		switch {
		case err != nil:
			lt.logger.zapLogger.Warn("failed to increment IP counter", zap.Error(err))
		case ipCount >= lt.config.MaxIPAttempts:
			if err := lt.createBlock(ctx, blockedLoginIPPrefix+meta.IP, "ip", meta.IP, meta); err != nil {
				return true, userCount, err
			}
			blocked = true
		}
	}
	return blocked, userCount, nil
}

func (lt *LoginTracker) atomicIncrement(ctx context.Context, key string, ttlSeconds int) (int, error) {
	result, err := lt.client.Eval(ctx, incrWithTTLScript, []string{key}, ttlSeconds).Result()
	if err != nil {
		return 0, err
	}
	count, ok := result.(int64)
	if !ok {
		return 0, errors.New("unexpected result type from Lua script")
	}
	return int(count), nil
}

func (lt *LoginTracker) createBlock(ctx context.Context, key, subjectType, subject string, meta RequestMeta) error {
	blockTTL := lt.config.BlockDuration
	if err := lt.client.Set(ctx, key, "1", blockTTL).Err(); err != nil {
		return fmt.Errorf("failed to set %s block: %w", subjectType, err)
	}
	lt.logger.LogBlockCreated(ctx, subjectType, subject, meta, int(blockTTL.Minutes()))
	return nil
}

// ClearAttempts clears failed login attempts on successful login
func (lt *LoginTracker) ClearAttempts(ctx context.Context, email, ip string) error {
	if lt.client == nil {
		return nil
	}
	if err := lt.client.Del(ctx, failLoginUserPrefix+normalizeEmail(email)).Err(); err != nil {
		return fmt.Errorf("failed to clear user attempts: %w", err)
	}
	if lt.config.UseIPTracking && ip != "" {
		_ = lt.client.Del(ctx, failLoginIPPrefix+ip).Err()
	}
	return nil
}
