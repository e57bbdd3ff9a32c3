package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return New(rdb, "test", cfg), mr
}

func TestLimiterBlocksAfterMaxAttempts(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxAttempts: 3, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.Check(ctx, "a@b.c", ""); err != nil {
			t.Fatalf("attempt %d: unexpected %v", i+1, err)
		}
		if err := l.Increment(ctx, "a@b.c", ""); err != nil {
			t.Fatalf("Increment: %v", err)
		}
	}
	if err := l.Check(ctx, "A@B.C ", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited for normalized email, got %v", err)
	}

	n, err := l.Attempts(ctx, "a@b.c")
	if err != nil || n != 3 {
		t.Fatalf("Attempts = (%d, %v), want (3, nil)", n, err)
	}
}

func TestLimiterWindowExpires(t *testing.T) {
	l, mr := newTestLimiter(t, Config{MaxAttempts: 1, Window: time.Minute})
	ctx := context.Background()

	if err := l.Increment(ctx, "x@y.z", ""); err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if err := l.Check(ctx, "x@y.z", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected limit, got %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if err := l.Check(ctx, "x@y.z", ""); err != nil {
		t.Fatalf("expected window to expire, got %v", err)
	}
}

func TestLimiterPerIP(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxAttempts: 2, Window: time.Minute, EnableIPThrottle: true})
	ctx := context.Background()

	_ = l.Increment(ctx, "one@x.y", "10.0.0.1")
	_ = l.Increment(ctx, "two@x.y", "10.0.0.1")

	if err := l.Check(ctx, "three@x.y", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected IP limit, got %v", err)
	}
	if err := l.Check(ctx, "three@x.y", "10.0.0.2"); err != nil {
		t.Fatalf("other IP should pass: %v", err)
	}
}

func TestLimiterReset(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxAttempts: 1, Window: time.Minute})
	ctx := context.Background()

	_ = l.Increment(ctx, "r@x.y", "")
	if err := l.Reset(ctx, "r@x.y", ""); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := l.Check(ctx, "r@x.y", ""); err != nil {
		t.Fatalf("expected reset to clear limit, got %v", err)
	}
}

func TestLimiterDisabled(t *testing.T) {
	l, _ := newTestLimiter(t, Config{})
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		_ = l.Increment(ctx, "d@x.y", "")
	}
	if err := l.Check(ctx, "d@x.y", ""); err != nil {
		t.Fatalf("disabled limiter should never block: %v", err)
	}
}

func TestLimiterRedisDown(t *testing.T) {
	l, mr := newTestLimiter(t, Config{MaxAttempts: 1, Window: time.Minute})
	mr.Close()
	if err := l.Check(context.Background(), "e@x.y", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
