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
// 1. CANCELLATION WITHOUT PENALTY
// ──────────────────────────────────────────────

func TestCancel_PendingWithoutDriver_FullRefund(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)

	env.clock.Advance(30 * time.Minute)

	cancelled, err := env.rideService.Cancel(context.Background(), ride.ID, domain.CancelledByPassenger, "changed plans")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cancelled.Status != domain.RideStatusCancelled {
		t.Errorf("expected status CANCELLED, got %s", cancelled.Status)
	}
	if cancelled.PassengerCommitment.Status != domain.CommitmentRefunded {
		t.Errorf("expected passenger commitment refunded, got %s", cancelled.PassengerCommitment.Status)
	}
	if cancelled.Cancellation == nil {
		t.Fatal("expected cancellation details to be recorded")
	}
	if !cancelled.Cancellation.PenaltyAmount.IsZero() {
		t.Errorf("expected zero penalty, got %s", cancelled.Cancellation.PenaltyAmount)
	}
	if cancelled.Cancellation.RefundRatio != 1 {
		t.Errorf("expected refund ratio 1, got %v", cancelled.Cancellation.RefundRatio)
	}
	if cancelled.Cancellation.Reason != "changed plans" {
		t.Errorf("expected reason recorded, got %q", cancelled.Cancellation.Reason)
	}

	if !env.users().Balance("passenger-1").Equal(decimal.NewFromInt(10000)) {
		t.Errorf("expected balance restored to 10000, got %s", env.users().Balance("passenger-1"))
	}
	if len(env.commissions().Records()) != 0 {
		t.Errorf("expected no commission records, got %d", len(env.commissions().Records()))
	}
	env.assertMoneyConserved(t, 10000)
}

func TestCancel_DriverImmediately_RefundCapMeansNoPenalty(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	env.addDriver("driver-1", 10000)
	ride := env.bookStandardRide(t, "passenger-1", 100*time.Minute)
	mustAccept(t, env, ride.ID, "driver-1")

	env.clock.Advance(time.Minute)

	cancelled, err := env.rideService.Cancel(context.Background(), ride.ID, domain.CancelledByDriver, "")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if !cancelled.Cancellation.PenaltyAmount.IsZero() {
		t.Errorf("expected zero penalty, got %s", cancelled.Cancellation.PenaltyAmount)
	}
	// Both parties walk away whole.
	if !env.users().Balance("passenger-1").Equal(decimal.NewFromInt(10000)) {
		t.Errorf("expected passenger balance 10000, got %s", env.users().Balance("passenger-1"))
	}
	if !env.users().Balance("driver-1").Equal(decimal.NewFromInt(10000)) {
		t.Errorf("expected driver balance 10000, got %s", env.users().Balance("driver-1"))
	}
	env.assertMoneyConserved(t, 20000)
}

// ──────────────────────────────────────────────
// 2. CANCELLATION WITH PENALTY
// ──────────────────────────────────────────────

func TestCancel_PassengerAtScheduledTime_FullPenaltySettlement(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	env.addDriver("driver-1", 10000)
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)
	mustAccept(t, env, ride.ID, "driver-1")

	env.clock.Advance(time.Hour) // Exactly at the scheduled time.

	cancelled, err := env.rideService.Cancel(context.Background(), ride.ID, domain.CancelledByPassenger, "no show")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	details := cancelled.Cancellation
	if !details.PenaltyAmount.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected full penalty 200, got %s", details.PenaltyAmount)
	}
	if cancelled.PassengerCommitment.Status != domain.CommitmentForfeited {
		t.Errorf("expected passenger commitment forfeited, got %s", cancelled.PassengerCommitment.Status)
	}
	if cancelled.DriverCommitment.Status != domain.CommitmentRefunded {
		t.Errorf("expected driver commitment refunded, got %s", cancelled.DriverCommitment.Status)
	}

	// Canceller: escrow released, full penalty charged back.
	if !env.users().Balance("passenger-1").Equal(decimal.NewFromInt(9800)) {
		t.Errorf("expected passenger balance 9800, got %s", env.users().Balance("passenger-1"))
	}
	// Driver: escrow back plus 90% of the penalty as convenience fee.
	if !env.users().Balance("driver-1").Equal(decimal.NewFromInt(10180)) {
		t.Errorf("expected driver balance 10180, got %s", env.users().Balance("driver-1"))
	}

	// Platform takes the remaining 10%: ledger entry plus commission record.
	records := env.commissions().Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 commission record, got %d", len(records))
	}
	if records[0].Type != domain.CommissionCancellation || records[0].Source != domain.SourcePassenger {
		t.Errorf("unexpected commission record: type=%s source=%s", records[0].Type, records[0].Source)
	}
	if !records[0].Amount.Equal(decimal.NewFromInt(20)) {
		t.Errorf("expected commission 20, got %s", records[0].Amount)
	}

	platformEntries := 0
	for _, e := range env.transactions().Entries() {
		if e.Type == domain.TxCommission && e.UserID == "" {
			platformEntries++
			if !e.Amount.Equal(decimal.NewFromInt(20)) {
				t.Errorf("expected platform ledger entry of 20, got %s", e.Amount)
			}
		}
	}
	if platformEntries != 1 {
		t.Errorf("expected 1 platform ledger entry, got %d", platformEntries)
	}

	env.assertMoneyConserved(t, 20000)
}

func TestCancel_DriverAtScheduledTime_SymmetricSettlement(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	env.addDriver("driver-1", 10000)
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)
	mustAccept(t, env, ride.ID, "driver-1")

	env.clock.Advance(time.Hour)

	cancelled, err := env.rideService.Cancel(context.Background(), ride.ID, domain.CancelledByDriver, "")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cancelled.DriverCommitment.Status != domain.CommitmentForfeited {
		t.Errorf("expected driver commitment forfeited, got %s", cancelled.DriverCommitment.Status)
	}
	if !env.users().Balance("driver-1").Equal(decimal.NewFromInt(9800)) {
		t.Errorf("expected driver balance 9800, got %s", env.users().Balance("driver-1"))
	}
	if !env.users().Balance("passenger-1").Equal(decimal.NewFromInt(10180)) {
		t.Errorf("expected passenger balance 10180, got %s", env.users().Balance("passenger-1"))
	}

	records := env.commissions().Records()
	if len(records) != 1 || records[0].Source != domain.SourceDriver {
		t.Fatalf("expected 1 commission record from DRIVER, got %+v", records)
	}
	env.assertMoneyConserved(t, 20000)
}

func TestCancel_NinetyPercentIntoLead_ExactAmounts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	env.addDriver("driver-1", 10000)
	ride := env.bookStandardRide(t, "passenger-1", 10*time.Minute)
	mustAccept(t, env, ride.ID, "driver-1")

	env.clock.Advance(9 * time.Minute)

	cancelled, err := env.rideService.Cancel(context.Background(), ride.ID, domain.CancelledByPassenger, "")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	// refundRatio = e^-2 * 10/9 ≈ 0.1504; refund ≈ 27.07; penalty ≈ 172.93.
	details := cancelled.Cancellation
	if !details.PenaltyAmount.Equal(decimal.RequireFromString("172.93")) {
		t.Errorf("expected penalty 172.93, got %s", details.PenaltyAmount)
	}
	if !env.users().Balance("passenger-1").Equal(decimal.RequireFromString("9827.07")) {
		t.Errorf("expected passenger balance 9827.07, got %s", env.users().Balance("passenger-1"))
	}
	if !env.users().Balance("driver-1").Equal(decimal.RequireFromString("10155.64")) {
		t.Errorf("expected driver balance 10155.64, got %s", env.users().Balance("driver-1"))
	}
	if !env.commissions().TotalAmount().Equal(decimal.RequireFromString("17.29")) {
		t.Errorf("expected platform take 17.29, got %s", env.commissions().TotalAmount())
	}
	env.assertMoneyConserved(t, 20000)
}

// ──────────────────────────────────────────────
// 3. CANCELLATION GUARDS
// ──────────────────────────────────────────────

func TestCancel_InProgressRide_Conflicts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	env.addDriver("driver-1", 10000)
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)
	mustAccept(t, env, ride.ID, "driver-1")
	mustStart(t, env, ride.ID, "driver-1")

	_, err := env.rideService.Cancel(context.Background(), ride.ID, domain.CancelledByPassenger, "")
	if !errors.Is(err, service.ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition, got: %v", err)
	}
}

func TestCancel_Twice_SecondConflicts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)

	if _, err := env.rideService.Cancel(context.Background(), ride.ID, domain.CancelledByPassenger, ""); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}
	_, err := env.rideService.Cancel(context.Background(), ride.ID, domain.CancelledByPassenger, "")
	if !errors.Is(err, service.ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition, got: %v", err)
	}
	// The refund must not have been paid twice.
	if !env.users().Balance("passenger-1").Equal(decimal.NewFromInt(10000)) {
		t.Errorf("expected balance 10000, got %s", env.users().Balance("passenger-1"))
	}
}

func TestCancel_DriverOnPendingRide_Forbidden(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)

	_, err := env.rideService.Cancel(context.Background(), ride.ID, domain.CancelledByDriver, "")
	if !errors.Is(err, service.ErrNotRideParty) {
		t.Errorf("expected ErrNotRideParty, got: %v", err)
	}
}

func TestCancel_UnknownParty_Rejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)

	_, err := env.rideService.Cancel(context.Background(), ride.ID, "platform", "")
	if !errors.Is(err, service.ErrInvalidCancelParty) {
		t.Errorf("expected ErrInvalidCancelParty, got: %v", err)
	}
}

// ──────────────────────────────────────────────
// 4. PENALTY PREVIEW
// ──────────────────────────────────────────────

func TestPenaltyPreview_DoesNotMutate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	env.addDriver("driver-1", 10000)
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)
	mustAccept(t, env, ride.ID, "driver-1")

	env.clock.Advance(50 * time.Minute)

	b, disclaimer, err := env.rideService.PenaltyPreview(context.Background(), ride.ID, domain.CancelledByPassenger)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if disclaimer == "" {
		t.Error("expected a disclaimer")
	}
	if !b.PenaltyAmount.IsPositive() {
		t.Errorf("expected positive penalty 10 minutes out, got %s", b.PenaltyAmount)
	}

	// No balances, entries or status changed.
	if !env.users().Balance("passenger-1").Equal(decimal.NewFromInt(9800)) {
		t.Errorf("preview changed passenger balance: %s", env.users().Balance("passenger-1"))
	}
	if got := env.rides().GetRide(ride.ID).Status; got != domain.RideStatusAccepted {
		t.Errorf("preview changed ride status: %s", got)
	}
}

func TestPenaltyPreview_MatchesSubsequentCancellation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	env.addDriver("driver-1", 10000)
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)
	mustAccept(t, env, ride.ID, "driver-1")

	env.clock.Advance(45 * time.Minute)

	b, _, err := env.rideService.PenaltyPreview(context.Background(), ride.ID, domain.CancelledByPassenger)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	cancelled, err := env.rideService.Cancel(context.Background(), ride.ID, domain.CancelledByPassenger, "")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	// Same clock instant: the preview is exactly what the settlement charged.
	if !cancelled.Cancellation.PenaltyAmount.Equal(b.PenaltyAmount.Round(2)) {
		t.Errorf("preview penalty %s != settled penalty %s", b.PenaltyAmount.Round(2), cancelled.Cancellation.PenaltyAmount)
	}
	if !cancelled.Cancellation.DriverConvenienceFee.Equal(b.DriverConvenienceFee.Round(2)) {
		t.Errorf("preview convenience %s != settled %s", b.DriverConvenienceFee.Round(2), cancelled.Cancellation.DriverConvenienceFee)
	}
}

func TestPenaltyPreview_CompletedRide_Conflicts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(testStart)
	env.addPassenger("passenger-1", 10000)
	env.addDriver("driver-1", 10000)
	ride := env.bookStandardRide(t, "passenger-1", time.Hour)
	mustAccept(t, env, ride.ID, "driver-1")
	mustStart(t, env, ride.ID, "driver-1")
	if _, err := env.rideService.Complete(context.Background(), ride.ID, "driver-1"); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	_, _, err := env.rideService.PenaltyPreview(context.Background(), ride.ID, domain.CancelledByPassenger)
	if !errors.Is(err, service.ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition, got: %v", err)
	}
}
