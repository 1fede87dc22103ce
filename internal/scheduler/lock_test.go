package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisLockerTryLock(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	locker := NewRedisLockerFromClient(client)
	ctx := context.Background()

	won, err := locker.TryLock(ctx, "distribution:2025-06-10", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !won {
		t.Fatal("expected first caller to win the lock")
	}

	won, err = locker.TryLock(ctx, "distribution:2025-06-10", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if won {
		t.Fatal("expected second caller to lose the lock")
	}

	// A different key is an independent lock.
	won, err = locker.TryLock(ctx, "recycling:2025-06-10", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !won {
		t.Fatal("expected a different key to be lockable")
	}

	// Expiry frees the lock.
	srv.FastForward(2 * time.Minute)
	won, err = locker.TryLock(ctx, "distribution:2025-06-10", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !won {
		t.Fatal("expected the lock to be free after expiry")
	}
}
