package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	ThrottleCooldownCapSeconds = 30
	LoginFailWindow            = 10 * time.Minute
)

// RedisThrottle slows down password guessing per email: every failed login
// sets a cooldown of min(30, 2^failCount) seconds. Failures are forgotten
// after LoginFailWindow without another failure.
type RedisThrottle struct {
	client *redis.Client
}

func NewRedisThrottle(addr, username, password string, db int) *RedisThrottle {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})
	return &RedisThrottle{client: client}
}

func failsKey(email string) string    { return "login:fails:" + strings.ToLower(email) }
func cooldownKey(email string) string { return "login:cooldown:" + strings.ToLower(email) }

func (t *RedisThrottle) Ping(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}

func (t *RedisThrottle) Close() error {
	return t.client.Close()
}

// Wait returns how long the caller must wait before trying again (0 if no cooldown).
func (t *RedisThrottle) Wait(ctx context.Context, email string) (time.Duration, error) {
	ttl, err := t.client.PTTL(ctx, cooldownKey(email)).Result()
	if err != nil {
		return 0, errors.Wrap(err, "throttle wait")
	}
	if ttl <= 0 {
		return 0, nil
	}
	// round up to whole seconds for Retry-After
	return time.Duration(math.Ceil(ttl.Seconds())) * time.Second, nil
}

// Failed increments the failure count and starts the cooldown.
func (t *RedisThrottle) Failed(ctx context.Context, email string) error {
	var incr *redis.IntCmd
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, failsKey(email))
		pipe.Expire(ctx, failsKey(email), LoginFailWindow)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "throttle failed")
	}
	cooldown := time.Duration(CooldownSecondsForFailCount(int(incr.Val()))) * time.Second
	return errors.Wrap(t.client.Set(ctx, cooldownKey(email), 1, cooldown).Err(), "throttle cooldown")
}

// Succeeded resets the failure count and cooldown.
func (t *RedisThrottle) Succeeded(ctx context.Context, email string) error {
	return errors.Wrap(t.client.Del(ctx, failsKey(email), cooldownKey(email)).Err(), "throttle reset")
}

// NopThrottle never throttles. Used when Redis is not configured.
type NopThrottle struct{}

func (NopThrottle) Wait(context.Context, string) (time.Duration, error) { return 0, nil }
func (NopThrottle) Failed(context.Context, string) error                { return nil }
func (NopThrottle) Succeeded(context.Context, string) error             { return nil }

// CooldownSecondsForFailCount returns min(30, 2^failCount).
func CooldownSecondsForFailCount(failCount int) int {
	if failCount >= 5 {
		return ThrottleCooldownCapSeconds
	}
	s := int(math.Pow(2, float64(failCount)))
	if s > ThrottleCooldownCapSeconds {
		return ThrottleCooldownCapSeconds
	}
	return s
}
