package usage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryServiceConsumesUpToLimit(t *testing.T) {
	svc := NewService(2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _, err := svc.CanConsume(ctx, "user-1", 1)
		if err != nil || !ok {
			t.Fatalf("CanConsume #%d: ok=%v err=%v", i, ok, err)
		}
		if _, err := svc.Consume(ctx, "user-1", 1); err != nil {
			t.Fatalf("Consume #%d: %v", i, err)
		}
	}

	ok, u, err := svc.CanConsume(ctx, "user-1", 1)
	if err != nil {
		t.Fatalf("CanConsume: %v", err)
	}
	if ok || u.Used != 2 || u.Remaining() != 0 {
		t.Fatalf("expected exhausted allowance, got ok=%v usage=%+v", ok, u)
	}
	if _, err := svc.Consume(ctx, "user-1", 1); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}

	other, err := svc.Get(ctx, "user-2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if other.Used != 0 || other.Limit != 2 || other.Plan != DefaultPlan {
		t.Fatalf("unexpected usage for other user: %+v", other)
	}
}

func TestMemoryStoreResetsExpiredWindow(t *testing.T) {
	store := newMemoryStore(3)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if _, err := store.Consume(ctx, "user-1", 3); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	now = now.Add(period)

	u, err := store.EnsurePeriod(ctx, "user-1")
	if err != nil {
		t.Fatalf("EnsurePeriod: %v", err)
	}
	if u.Used != 0 || !u.ResetsAt.Equal(now.Add(period)) {
		t.Fatalf("expected fresh window, got %+v", u)
	}
}

func TestNormalizeLimitFallsBack(t *testing.T) {
	if got := normalizeLimit(0); got != DefaultWeeklyLimit {
		t.Fatalf("expected default limit, got %d", got)
	}
	if got := normalizeLimit(25); got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}
}

func TestMemoryServiceReleaseReturnsUnits(t *testing.T) {
	svc := NewService(1)
	ctx := context.Background()

	if _, err := svc.Consume(ctx, "user-1", 1); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	u, err := svc.Release(ctx, "user-1", 1)
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if u.Used != 0 {
		t.Fatalf("expected used=0 after release, got %d", u.Used)
	}
	if u, err = svc.Release(ctx, "user-1", 3); err != nil || u.Used != 0 {
		t.Fatalf("release below zero: usage=%+v err=%v", u, err)
	}
	if _, err := svc.Consume(ctx, "user-1", 1); err != nil {
		t.Fatalf("Consume after release: %v", err)
	}
}

func TestMemoryServiceConcurrentConsumeHonoursLimit(t *testing.T) {
	svc := NewService(3)
	ctx := context.Background()

	var wg sync.WaitGroup
	var granted atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Consume(ctx, "user-1", 1); err == nil {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := granted.Load(); got != 3 {
		t.Fatalf("expected 3 granted units, got %d", got)
	}
	u, err := svc.Get(ctx, "user-1")
	if err != nil || u.Used != 3 {
		t.Fatalf("unexpected usage %+v err=%v", u, err)
	}
}
