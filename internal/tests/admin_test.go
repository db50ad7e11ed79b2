package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"prebook/internal/domain"
	"prebook/internal/service"
)

// ──────────────────────────────────────────────
// 1. ADMIN STATS AND FEE OVERRIDE
// ──────────────────────────────────────────────

func newAdminEnv(t *testing.T) (*testEnv, *service.AdminService, *MockCacheStore) {
	t.Helper()
	env := newTestEnv(testStart)
	cache := NewMockCacheStore()
	admin := service.NewAdminService(
		env.users(),
		env.rides(),
		env.transactions(),
		env.commissions(),
		env.fees,
		cache,
	)
	return env, admin, cache
}

func TestAdminStats_AggregatesAndCaches(t *testing.T) {
	t.Parallel()

	env, admin, cache := newAdminEnv(t)
	env.addPassenger("passenger-1", 10000)
	env.addDriver("driver-1", 10000)
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)
	mustAccept(t, env, ride.ID, "driver-1")

	env.clock.Advance(time.Hour)
	if _, err := env.rideService.Cancel(context.Background(), ride.ID, domain.CancelledByPassenger, ""); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	stats, err := admin.Stats(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if stats.TotalUsers != 2 {
		t.Errorf("expected 2 users, got %d", stats.TotalUsers)
	}
	if stats.TotalRides != 1 {
		t.Errorf("expected 1 ride, got %d", stats.TotalRides)
	}
	if !stats.TotalCommission.Equal(decimal.NewFromInt(20)) {
		t.Errorf("expected platform take 20, got %s", stats.TotalCommission)
	}
	if stats.PlatformFeePercentage != 0.10 {
		t.Errorf("expected platform percentage 0.10, got %v", stats.PlatformFeePercentage)
	}

	// Second read is served from cache.
	if !cache.Has("dashboard") {
		t.Fatal("expected stats to be cached")
	}
	setsBefore := cache.SetCallCount
	if _, err := admin.Stats(context.Background()); err != nil {
		t.Fatalf("cached read failed: %v", err)
	}
	if cache.SetCallCount != setsBefore {
		t.Error("cache hit must not rewrite the cached value")
	}
}

func TestAdminStats_CacheDown_FallsThrough(t *testing.T) {
	t.Parallel()

	env, admin, cache := newAdminEnv(t)
	env.addPassenger("passenger-1", 10000)
	cache.GetError = errors.New("redis: connection refused")

	stats, err := admin.Stats(context.Background())
	if err != nil {
		t.Fatalf("expected stats despite cache failure, got: %v", err)
	}
	if stats.TotalUsers != 1 {
		t.Errorf("expected 1 user, got %d", stats.TotalUsers)
	}
}

func TestAdminUpdateFees_AppliesAndInvalidatesCache(t *testing.T) {
	t.Parallel()

	env, admin, cache := newAdminEnv(t)
	env.addPassenger("passenger-1", 10000)

	if _, err := admin.Stats(context.Background()); err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if !cache.Has("dashboard") {
		t.Fatal("expected stats cached before override")
	}

	policy, err := admin.UpdateFees(context.Background(), 0.25, 0.75)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if policy.PlatformFeePercentage != 0.25 || policy.ConvenienceFeePercentage != 0.75 {
		t.Errorf("unexpected policy after override: %+v", policy)
	}
	if cache.Has("dashboard") {
		t.Error("expected cached stats invalidated after fee override")
	}

	// Subsequent settlements use the new split.
	if env.fees.Current().PlatformFeePercentage != 0.25 {
		t.Errorf("provider not updated: %v", env.fees.Current().PlatformFeePercentage)
	}
}

func TestAdminUpdateFees_InvalidSplit_Rejected(t *testing.T) {
	t.Parallel()

	_, admin, _ := newAdminEnv(t)

	_, err := admin.UpdateFees(context.Background(), 0.5, 0.6)
	if !errors.Is(err, service.ErrInvalidFeeSplit) {
		t.Errorf("expected ErrInvalidFeeSplit, got: %v", err)
	}
}

func TestAdminListings_ReturnRecentActivity(t *testing.T) {
	t.Parallel()

	env, admin, _ := newAdminEnv(t)
	env.addPassenger("passenger-1", 10000)
	env.addDriver("driver-1", 10000)
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)
	mustAccept(t, env, ride.ID, "driver-1")

	entries, err := admin.RecentTransactions(context.Background())
	if err != nil {
		t.Fatalf("transactions listing failed: %v", err)
	}
	// Two escrow debits so far.
	if len(entries) != 2 {
		t.Errorf("expected 2 ledger entries, got %d", len(entries))
	}
	for _, e := range entries {
		if !e.Signed.IsNegative() {
			t.Errorf("escrow entry should have negative signed effect, got %s", e.Signed)
		}
	}

	rides, err := admin.AllRides(context.Background())
	if err != nil {
		t.Fatalf("rides listing failed: %v", err)
	}
	if len(rides) != 1 {
		t.Errorf("expected 1 ride, got %d", len(rides))
	}
}
