package quota_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"shortforge/internal/quota"
)

func openStore(t *testing.T) *quota.Store {
	t.Helper()
	store, err := quota.Open(filepath.Join(t.TempDir(), "quota.db"))
	if err != nil {
		t.Fatalf("open quota store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDailyCountStartsAtZero(t *testing.T) {
	store := openStore(t)
	count, err := store.DailyCount(context.Background(), "client_a", "2026-08-29")
	if err != nil {
		t.Fatalf("DailyCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0, got %d", count)
	}
}

func TestIncrementIsScopedByClientAndDate(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if count, err := store.Increment(ctx, "client_a", "2026-08-29"); err != nil || count != 1 {
		t.Fatalf("first increment: count=%d err=%v", count, err)
	}
	if count, err := store.Increment(ctx, "client_a", "2026-08-29"); err != nil || count != 2 {
		t.Fatalf("second increment: count=%d err=%v", count, err)
	}
	if count, err := store.DailyCount(ctx, "client_b", "2026-08-29"); err != nil || count != 0 {
		t.Fatalf("other client affected: count=%d err=%v", count, err)
	}
	if count, err := store.DailyCount(ctx, "client_a", "2026-08-30"); err != nil || count != 0 {
		t.Fatalf("other date affected: count=%d err=%v", count, err)
	}
}

func TestAcquireStopsAtLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	date := "2026-08-29"

	count, ok, err := store.Acquire(ctx, "client_a", date, 2)
	if err != nil || !ok || count != 1 {
		t.Fatalf("first acquire: count=%d ok=%v err=%v", count, ok, err)
	}
	count, ok, err = store.Acquire(ctx, "client_a", date, 2)
	if err != nil || !ok || count != 2 {
		t.Fatalf("second acquire: count=%d ok=%v err=%v", count, ok, err)
	}
	count, ok, err = store.Acquire(ctx, "client_a", date, 2)
	if err != nil {
		t.Fatalf("third acquire: %v", err)
	}
	if ok {
		t.Fatal("third acquire must be refused at limit 2")
	}
	if count != 2 {
		t.Fatalf("count moved past limit: %d", count)
	}
}

func TestAcquireWithZeroLimitAlwaysRefuses(t *testing.T) {
	store := openStore(t)
	count, ok, err := store.Acquire(context.Background(), "client_a", "2026-08-29", 0)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if ok || count != 0 {
		t.Fatalf("expected refusal with count 0, got ok=%v count=%d", ok, count)
	}
}

func TestReleaseReturnsSlotAndFloorsAtZero(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	date := "2026-08-29"

	if _, _, err := store.Acquire(ctx, "client_a", date, 1); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := store.Release(ctx, "client_a", date); err != nil {
		t.Fatalf("release: %v", err)
	}
	if count, ok, err := store.Acquire(ctx, "client_a", date, 1); err != nil || !ok || count != 1 {
		t.Fatalf("re-acquire after release: count=%d ok=%v err=%v", count, ok, err)
	}

	if err := store.Release(ctx, "client_b", date); err != nil {
		t.Fatalf("release on empty count: %v", err)
	}
	if count, err := store.DailyCount(ctx, "client_b", date); err != nil || count != 0 {
		t.Fatalf("count went negative: count=%d err=%v", count, err)
	}
}

func TestDateKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	local := time.Date(2026, 8, 30, 5, 0, 0, 0, loc)
	if got := quota.DateKey(local); got != "2026-08-29" {
		t.Fatalf("expected UTC date 2026-08-29, got %q", got)
	}
}
