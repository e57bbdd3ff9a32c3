package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the sign-in failure budget.
type Config struct {
	MaxAttempts      int           `env:"MAX_ATTEMPTS"`
	Window           time.Duration `env:"WINDOW"`
	EnableIPThrottle bool          `env:"IP_THROTTLE"`
}

// DefaultConfig allows five failures per email in a fifteen minute window.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:      5,
		Window:           15 * time.Minute,
		EnableIPThrottle: true,
	}
}

// Limiter counts sign-in failures. A zero MaxAttempts disables it.
type Limiter struct {
	redis  redis.UniversalClient
	prefix string
	config Config
}

// New returns a limiter storing counters under prefix.
func New(client redis.UniversalClient, prefix string, cfg Config) *Limiter {
	return &Limiter{
		redis:  client,
		prefix: prefix,
		config: cfg,
	}
}

// Check returns ErrRateLimited once email (or ip) has used up its budget.
func (l *Limiter) Check(ctx context.Context, email, ip string) error {
	if l.disabled() {
		return nil
	}
	for _, key := range l.keys(email, ip) {
		count, err := l.redis.Get(ctx, key).Int64()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if count >= int64(l.config.MaxAttempts) {
			return ErrRateLimited
		}
	}
	return nil
}

// Increment records one failure.
func (l *Limiter) Increment(ctx context.Context, email, ip string) error {
	if l.disabled() {
		return nil
	}
	for _, key := range l.keys(email, ip) {
		count, err := l.redis.Incr(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if count == 1 {
			if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
		}
	}
	return nil
}

// Reset clears the counters after a successful sign-in.
func (l *Limiter) Reset(ctx context.Context, email, ip string) error {
	if l.disabled() {
		return nil
	}
	if err := l.redis.Del(ctx, l.keys(email, ip)...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Attempts returns the failure count for email. Missing keys count as zero.
func (l *Limiter) Attempts(ctx context.Context, email string) (int, error) {
	count, err := l.redis.Get(ctx, l.emailKey(email)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return count, nil
}

func (l *Limiter) disabled() bool {
	return l == nil || l.config.MaxAttempts <= 0
}

func (l *Limiter) keys(email, ip string) []string {
	keys := []string{l.emailKey(email)}
	if l.config.EnableIPThrottle && ip != "" {
		keys = append(keys, l.prefix+":rl:ip:"+ip)
	}
	return keys
}

func (l *Limiter) emailKey(email string) string {
	return l.prefix + ":rl:email:" + strings.ToLower(strings.TrimSpace(email))
}
