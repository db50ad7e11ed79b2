package tests

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"prebook/internal/config"
	"prebook/internal/domain"
	"prebook/internal/service"
)

// fakeClock is a controllable clock for deterministic penalty math.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func defaultFees() config.FeesConfig {
	return config.FeesConfig{
		CommitmentFeeRate:        0.20,
		PlatformFeePercentage:    0.10,
		ConvenienceFeePercentage: 0.90,
		DriverBonusRate:          0.05,
	}
}

func defaultPricing() config.PricingConfig {
	return config.PricingConfig{
		PerKmRate:      20,
		PerHourRate:    250,
		InitialBalance: 10000,
	}
}

// testEnv wires the ride service against the in-memory repositories with a
// pinned clock.
type testEnv struct {
	uow         *MockUnitOfWork
	locks       *MockLockStore
	fees        *service.FeePolicyProvider
	clock       *fakeClock
	rideService *service.RideService
	userService *service.UserService
}

func newTestEnv(start time.Time) *testEnv {
	uow := NewMockUnitOfWork()
	locks := NewMockLockStore()
	clock := newFakeClock(start)
	fees := service.NewFeePolicyProvider(defaultFees())
	pricing := service.NewPricingService(defaultPricing(), fees)
	penalties := service.NewPenaltyCalculator(fees)

	rideService := service.NewRideService(
		uow,
		uow.Repos.RideRepo,
		pricing,
		penalties,
		fees,
		locks,
		nil,
	).WithClock(clock.Now)

	userService := service.NewUserService(
		uow,
		uow.Repos.UserRepo,
		uow.Repos.TransactionRepo,
		decimal.NewFromInt(10000),
	).WithClock(clock.Now)

	return &testEnv{
		uow:         uow,
		locks:       locks,
		fees:        fees,
		clock:       clock,
		rideService: rideService,
		userService: userService,
	}
}

func (e *testEnv) users() *MockUserRepository {
	return e.uow.Repos.UserRepo
}

func (e *testEnv) rides() *MockRideRepository {
	return e.uow.Repos.RideRepo
}

func (e *testEnv) transactions() *MockTransactionRepository {
	return e.uow.Repos.TransactionRepo
}

func (e *testEnv) commissions() *MockCommissionRepository {
	return e.uow.Repos.CommissionRepo
}

func (e *testEnv) addPassenger(id string, balance int64) {
	e.users().AddUser(&domain.User{
		ID:      id,
		Name:    "Passenger " + id,
		Phone:   "p-" + id,
		Role:    domain.RolePassenger,
		Balance: decimal.NewFromInt(balance),
	})
}

func (e *testEnv) addDriver(id string, balance int64) {
	e.users().AddUser(&domain.User{
		ID:      id,
		Name:    "Driver " + id,
		Phone:   "d-" + id,
		Role:    domain.RoleDriver,
		Balance: decimal.NewFromInt(balance),
	})
}

// bookStandardRide books a 50 km point-to-point ride (fare 1000, commitment
// fee 200) scheduled leadTime from now.
func (e *testEnv) bookStandardRide(t *testing.T, passengerID string, leadTime time.Duration) *domain.Ride {
	t.Helper()
	ride, err := e.rideService.Book(context.Background(), service.BookRideRequest{
		PassengerID:   passengerID,
		BookingType:   domain.BookingPointToPoint,
		Pickup:        "Airport",
		Destination:   "Downtown",
		DistanceKm:    decimal.NewFromInt(50),
		ScheduledTime: e.clock.Now().Add(leadTime),
	})
	if err != nil {
		t.Fatalf("failed to book ride: %v", err)
	}
	return ride
}

// assertMoneyConserved checks that the wallet total plus the platform's net
// take equals the total seeded into the wallets.
func (e *testEnv) assertMoneyConserved(t *testing.T, seeded int64) {
	t.Helper()
	total := e.users().TotalBalance().Add(e.commissions().TotalAmount())
	if !total.Equal(decimal.NewFromInt(seeded)) {
		t.Errorf("money not conserved: wallets+platform = %s, seeded %d", total, seeded)
	}
}

func approxEqual(a decimal.Decimal, want float64, tolerance float64) bool {
	diff := a.InexactFloat64() - want
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}
