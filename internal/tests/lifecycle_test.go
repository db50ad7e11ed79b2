package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"prebook/internal/domain"
	"prebook/internal/repository"
	"prebook/internal/service"
)

// ──────────────────────────────────────────────
// 1. DRIVER ACCEPTANCE
// ──────────────────────────────────────────────

func TestAccept_EscrowsDriverCommitment(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	env.addDriver("driver-1", 10000)
	ride := env.bookStandardRide(t, "passenger-1", 2*time.Hour)

	accepted, err := env.rideService.Accept(context.Background(), ride.ID, "driver-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if accepted.Status != domain.RideStatusAccepted {
		t.Errorf("expected status ACCEPTED, got %s", accepted.Status)
	}
	if accepted.DriverID != "driver-1" {
		t.Errorf("expected driver assigned, got %q", accepted.DriverID)
	}
	if accepted.DriverCommitment.Status != domain.CommitmentPaid {
		t.Errorf("expected driver commitment paid, got %s", accepted.DriverCommitment.Status)
	}
	if accepted.AcceptedAt.IsZero() {
		t.Error("expected accepted_at to be set")
	}

	// Driver's escrow matches the passenger's fee exactly.
	if !env.users().Balance("driver-1").Equal(decimal.NewFromInt(9800)) {
		t.Errorf("expected driver balance 9800, got %s", env.users().Balance("driver-1"))
	}
}

func TestAccept_PassengerRoleCannotAccept(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	env.addPassenger("passenger-2", 10000)
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)

	_, err := env.rideService.Accept(context.Background(), ride.ID, "passenger-2")
	if !errors.Is(err, service.ErrNotDriver) {
		t.Errorf("expected ErrNotDriver, got: %v", err)
	}
	// Rejection must not leak an escrow debit.
	if !env.users().Balance("passenger-2").Equal(decimal.NewFromInt(10000)) {
		t.Errorf("expected balance untouched, got %s", env.users().Balance("passenger-2"))
	}
}

func TestAccept_AlreadyAccepted_Conflicts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	env.addDriver("driver-1", 10000)
	env.addDriver("driver-2", 10000)
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)

	if _, err := env.rideService.Accept(context.Background(), ride.ID, "driver-1"); err != nil {
		t.Fatalf("first accept failed: %v", err)
	}
	_, err := env.rideService.Accept(context.Background(), ride.ID, "driver-2")
	if !errors.Is(err, service.ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition, got: %v", err)
	}
	if !env.users().Balance("driver-2").Equal(decimal.NewFromInt(10000)) {
		t.Errorf("losing driver must not be debited, got %s", env.users().Balance("driver-2"))
	}
}

func TestAccept_InsufficientDriverBalance_RollsBack(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	env.addDriver("driver-1", 50) // Cannot cover the 200 fee.
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)

	_, err := env.rideService.Accept(context.Background(), ride.ID, "driver-1")
	if !errors.Is(err, repository.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got: %v", err)
	}

	stored := env.rides().GetRide(ride.ID)
	if stored.Status != domain.RideStatusPending {
		t.Errorf("ride must stay PENDING, got %s", stored.Status)
	}
	if stored.DriverID != "" {
		t.Errorf("no driver must be assigned, got %q", stored.DriverID)
	}
}

// ──────────────────────────────────────────────
// 2. START AND COMPLETE
// ──────────────────────────────────────────────

func TestStart_OnlyAssignedDriver(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	env.addDriver("driver-1", 10000)
	env.addDriver("driver-2", 10000)
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)
	if _, err := env.rideService.Accept(context.Background(), ride.ID, "driver-1"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	_, err := env.rideService.Start(context.Background(), ride.ID, "driver-2")
	if !errors.Is(err, service.ErrNotAssignedDriver) {
		t.Errorf("expected ErrNotAssignedDriver, got: %v", err)
	}

	started, err := env.rideService.Start(context.Background(), ride.ID, "driver-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if started.Status != domain.RideStatusInProgress {
		t.Errorf("expected status IN_PROGRESS, got %s", started.Status)
	}
	if started.StartedAt.IsZero() {
		t.Error("expected started_at to be set")
	}
}

func TestStart_PendingRide_Conflicts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	env.addDriver("driver-1", 10000)
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)

	_, err := env.rideService.Start(context.Background(), ride.ID, "driver-1")
	if !errors.Is(err, service.ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition, got: %v", err)
	}
}

func TestComplete_SettlesFareEscrowAndBonus(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	env.addDriver("driver-1", 10000)
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)
	mustAccept(t, env, ride.ID, "driver-1")
	mustStart(t, env, ride.ID, "driver-1")

	completed, err := env.rideService.Complete(context.Background(), ride.ID, "driver-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if completed.Status != domain.RideStatusCompleted {
		t.Errorf("expected status COMPLETED, got %s", completed.Status)
	}
	// Bonus: 5% of the 1000 fare.
	if !completed.DriverBonus.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected bonus 50, got %s", completed.DriverBonus)
	}
	if completed.DriverCommitment.Status != domain.CommitmentRefunded {
		t.Errorf("expected driver commitment refunded, got %s", completed.DriverCommitment.Status)
	}

	// Passenger: 10000 - 200 (escrow) - 1000 (fare) = 8800.
	if !env.users().Balance("passenger-1").Equal(decimal.NewFromInt(8800)) {
		t.Errorf("expected passenger balance 8800, got %s", env.users().Balance("passenger-1"))
	}
	// Driver: 10000 - 200 + 200 + 1200 (fare + passenger fee) + 50 = 11250.
	if !env.users().Balance("driver-1").Equal(decimal.NewFromInt(11250)) {
		t.Errorf("expected driver balance 11250, got %s", env.users().Balance("driver-1"))
	}

	// The bonus is platform money: a negative commission record offsets it.
	records := env.commissions().Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 commission record, got %d", len(records))
	}
	if records[0].Type != domain.CommissionRide {
		t.Errorf("expected RIDE_COMMISSION record, got %s", records[0].Type)
	}
	if !records[0].Amount.Equal(decimal.NewFromInt(-50)) {
		t.Errorf("expected commission -50, got %s", records[0].Amount)
	}

	env.assertMoneyConserved(t, 20000)
}

func TestComplete_PassengerCannotCoverFare_RollsBack(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 250) // Covers the fee, not the fare.
	env.addDriver("driver-1", 10000)
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)
	mustAccept(t, env, ride.ID, "driver-1")
	mustStart(t, env, ride.ID, "driver-1")

	_, err := env.rideService.Complete(context.Background(), ride.ID, "driver-1")
	if !errors.Is(err, repository.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got: %v", err)
	}

	stored := env.rides().GetRide(ride.ID)
	if stored.Status != domain.RideStatusInProgress {
		t.Errorf("ride must stay IN_PROGRESS, got %s", stored.Status)
	}
	// The driver's interim refund must also roll back.
	if !env.users().Balance("driver-1").Equal(decimal.NewFromInt(9800)) {
		t.Errorf("expected driver balance 9800, got %s", env.users().Balance("driver-1"))
	}
}

func TestComplete_WrongStatus_Conflicts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	env.addDriver("driver-1", 10000)
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)
	mustAccept(t, env, ride.ID, "driver-1")

	// ACCEPTED but not started.
	_, err := env.rideService.Complete(context.Background(), ride.ID, "driver-1")
	if !errors.Is(err, service.ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition, got: %v", err)
	}
}

// ──────────────────────────────────────────────
// 3. RIDE LOCK FENCING
// ──────────────────────────────────────────────

func TestTransitions_HeldLock_ReturnsBusy(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	env.addDriver("driver-1", 10000)
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)

	env.locks.Hold(ride.ID)

	_, err := env.rideService.Accept(context.Background(), ride.ID, "driver-1")
	if !errors.Is(err, service.ErrRideBusy) {
		t.Errorf("expected ErrRideBusy, got: %v", err)
	}
	_, err = env.rideService.Cancel(context.Background(), ride.ID, domain.CancelledByPassenger, "")
	if !errors.Is(err, service.ErrRideBusy) {
		t.Errorf("expected ErrRideBusy, got: %v", err)
	}
}

func TestTransitions_LockReleasedAfterUse(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	env.addDriver("driver-1", 10000)
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)

	if _, err := env.rideService.Accept(context.Background(), ride.ID, "driver-1"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if env.locks.IsLocked(ride.ID) {
		t.Error("lock must be released after the transition")
	}
}

func TestTransitions_LockStoreDown_FallsBackToStatusGuard(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	env.addDriver("driver-1", 10000)
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)

	env.locks.AcquireError = errors.New("redis: connection refused")

	// Redis being down must not block the transition: the store's status
	// guard still protects against double-settlement.
	accepted, err := env.rideService.Accept(context.Background(), ride.ID, "driver-1")
	if err != nil {
		t.Fatalf("expected no error with lock store down, got: %v", err)
	}
	if accepted.Status != domain.RideStatusAccepted {
		t.Errorf("expected status ACCEPTED, got %s", accepted.Status)
	}
}

func mustAccept(t *testing.T, env *testEnv, rideID, driverID string) {
	t.Helper()
	if _, err := env.rideService.Accept(context.Background(), rideID, driverID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
}

func mustStart(t *testing.T, env *testEnv, rideID, driverID string) {
	t.Helper()
	if _, err := env.rideService.Start(context.Background(), rideID, driverID); err != nil {
		t.Fatalf("start failed: %v", err)
	}
}
