package tests

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"prebook/internal/domain"
	"prebook/internal/service"
)

// ──────────────────────────────────────────────
// 1. PENALTY CALCULATOR
// ──────────────────────────────────────────────

func newCalculator() *service.PenaltyCalculator {
	return service.NewPenaltyCalculator(service.NewFeePolicyProvider(defaultFees()))
}

func pendingRide(created, scheduled time.Time) *domain.Ride {
	return &domain.Ride{
		ID:            "ride-1",
		PassengerID:   "passenger-1",
		Status:        domain.RideStatusPending,
		Fare:          decimal.NewFromInt(1000),
		CommitmentFee: decimal.NewFromInt(200),
		CreatedAt:     created,
		ScheduledTime: scheduled,
	}
}

func acceptedRide(created, scheduled time.Time) *domain.Ride {
	r := pendingRide(created, scheduled)
	r.DriverID = "driver-1"
	r.Status = domain.RideStatusAccepted
	return r
}

func TestPenalty_PassengerCancelsWithoutDriver_FullRefund(t *testing.T) {
	t.Parallel()

	calc := newCalculator()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ride := pendingRide(created, created.Add(10*time.Minute))

	b := calc.Calculate(ride, domain.CancelledByPassenger, created.Add(5*time.Minute))

	if !b.PenaltyAmount.IsZero() {
		t.Errorf("expected zero penalty, got %s", b.PenaltyAmount)
	}
	if !b.PassengerRefundAmount.Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected full refund of 200, got %s", b.PassengerRefundAmount)
	}
	if b.RefundRatio != 1 {
		t.Errorf("expected refund ratio 1, got %v", b.RefundRatio)
	}
	if !b.PlatformAmount.IsZero() || !b.ConvenienceFee.IsZero() {
		t.Error("expected no penalty split when no driver has committed")
	}
}

func TestPenalty_CancellationAtOrAfterScheduledTime_FullPenalty(t *testing.T) {
	t.Parallel()

	calc := newCalculator()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	scheduled := created.Add(30 * time.Minute)
	ride := acceptedRide(created, scheduled)

	// Cancelling an hour late forfeits the whole commitment fee.
	b := calc.Calculate(ride, domain.CancelledByPassenger, scheduled.Add(1*time.Hour))

	if !b.PenaltyAmount.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected full penalty of 200, got %s", b.PenaltyAmount)
	}
	if !b.PassengerRefundAmount.IsZero() {
		t.Errorf("expected zero refund, got %s", b.PassengerRefundAmount)
	}
	if b.MinutesUntilRide != 0 {
		t.Errorf("expected minutes until ride clamped to 0, got %v", b.MinutesUntilRide)
	}
	if !b.PlatformAmount.Equal(decimal.NewFromInt(20)) {
		t.Errorf("expected platform share 20, got %s", b.PlatformAmount)
	}
	if !b.DriverConvenienceFee.Equal(decimal.NewFromInt(180)) {
		t.Errorf("expected driver convenience fee 180, got %s", b.DriverConvenienceFee)
	}
}

func TestPenalty_LateCancellation_DecaysRefund(t *testing.T) {
	t.Parallel()

	calc := newCalculator()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	scheduled := created.Add(10 * time.Minute)
	ride := acceptedRide(created, scheduled)

	// Cancelling 9 minutes into a 10 minute lead:
	// refundRatio = e^-2 * 10/9 ≈ 0.1504
	b := calc.Calculate(ride, domain.CancelledByPassenger, created.Add(9*time.Minute))

	if !approxEqual(decimal.NewFromFloat(b.RefundRatio), 0.1504, 0.001) {
		t.Errorf("expected refund ratio ≈ 0.1504, got %v", b.RefundRatio)
	}
	// Refund = 200 * ratio * 0.9 ≈ 27.07
	if !approxEqual(b.PassengerRefundAmount, 27.07, 0.01) {
		t.Errorf("expected refund ≈ 27.07, got %s", b.PassengerRefundAmount)
	}
	if !approxEqual(b.PenaltyAmount, 172.93, 0.01) {
		t.Errorf("expected penalty ≈ 172.93, got %s", b.PenaltyAmount)
	}
	if !approxEqual(b.PlatformAmount, 17.29, 0.01) {
		t.Errorf("expected platform share ≈ 17.29, got %s", b.PlatformAmount)
	}
	if !approxEqual(b.DriverConvenienceFee, 155.64, 0.01) {
		t.Errorf("expected driver convenience fee ≈ 155.64, got %s", b.DriverConvenienceFee)
	}
}

func TestPenalty_PassengerFloor_NoFreeCancelOnceDriverCommitted(t *testing.T) {
	t.Parallel()

	calc := newCalculator()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	scheduled := created.Add(100 * time.Minute)
	ride := acceptedRide(created, scheduled)

	// Cancelling one minute after booking: the raw ratio clamps to 1, but
	// the floor keeps a sliver of penalty.
	b := calc.Calculate(ride, domain.CancelledByPassenger, created.Add(1*time.Minute))

	if !b.PenaltyAmount.IsPositive() {
		t.Fatalf("expected positive penalty, got %s", b.PenaltyAmount)
	}
	// Floor: 0.02 * (30/99) ≈ 0.00606 → refundRatio ≈ 0.99394
	// Refund = 200 * 0.99394 * 0.9 ≈ 178.91, penalty ≈ 21.09
	if !approxEqual(b.PenaltyAmount, 21.09, 0.01) {
		t.Errorf("expected penalty ≈ 21.09, got %s", b.PenaltyAmount)
	}
}

func TestPenalty_DriverEarlyCancellation_RefundCappedAtFee(t *testing.T) {
	t.Parallel()

	calc := newCalculator()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	scheduled := created.Add(100 * time.Minute)
	ride := acceptedRide(created, scheduled)

	// Driver cancelling right away: 1.1x multiplier pushes the refund over
	// the fee, so it caps at the fee and the penalty is zero.
	b := calc.Calculate(ride, domain.CancelledByDriver, created.Add(1*time.Minute))

	if !b.PenaltyAmount.IsZero() {
		t.Errorf("expected zero penalty after cap, got %s", b.PenaltyAmount)
	}
	if !b.DriverRefundAmount.Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected refund capped at 200, got %s", b.DriverRefundAmount)
	}
	if !b.PassengerConvenienceFee.IsZero() {
		t.Errorf("expected no convenience fee on zero penalty, got %s", b.PassengerConvenienceFee)
	}
}

func TestPenalty_DriverLateCancellation_PaysMoreThanPassenger(t *testing.T) {
	t.Parallel()

	calc := newCalculator()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	scheduled := created.Add(60 * time.Minute)
	ride := acceptedRide(created, scheduled)
	now := created.Add(55 * time.Minute)

	passenger := calc.Calculate(ride, domain.CancelledByPassenger, now)
	driver := calc.Calculate(ride, domain.CancelledByDriver, now)

	// Same instant, same ride: the driver floor is steeper but the 1.1x
	// multiplier is kinder. Both must land strictly between 0 and the fee.
	for name, b := range map[string]service.PenaltyBreakdown{"passenger": passenger, "driver": driver} {
		if !b.PenaltyAmount.IsPositive() || b.PenaltyAmount.GreaterThan(decimal.NewFromInt(200)) {
			t.Errorf("%s penalty out of range: %s", name, b.PenaltyAmount)
		}
	}
	if !driver.DriverRefundAmount.IsPositive() {
		t.Errorf("expected positive driver refund, got %s", driver.DriverRefundAmount)
	}
	if !passenger.PassengerRefundAmount.IsPositive() {
		t.Errorf("expected positive passenger refund, got %s", passenger.PassengerRefundAmount)
	}
	if driver.DriverRefundAmount.LessThan(passenger.PassengerRefundAmount) {
		t.Errorf("driver refund %s should be at least the passenger refund %s",
			driver.DriverRefundAmount, passenger.PassengerRefundAmount)
	}
}

func TestPenalty_PenaltySplit_SumsToPenalty(t *testing.T) {
	t.Parallel()

	calc := newCalculator()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	scheduled := created.Add(45 * time.Minute)
	ride := acceptedRide(created, scheduled)

	b := calc.Calculate(ride, domain.CancelledByPassenger, created.Add(40*time.Minute))

	split := b.PlatformAmount.Add(b.ConvenienceFee)
	if !split.Equal(b.PenaltyAmount) {
		t.Errorf("platform + convenience = %s, want penalty %s", split, b.PenaltyAmount)
	}
}

func TestPenalty_Disclaimer_MentionsAmounts(t *testing.T) {
	t.Parallel()

	calc := newCalculator()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ride := acceptedRide(created, created.Add(10*time.Minute))

	b := calc.Calculate(ride, domain.CancelledByPassenger, created.Add(9*time.Minute))
	msg := calc.Disclaimer(domain.CancelledByPassenger, b)

	if msg == "" {
		t.Fatal("expected non-empty disclaimer")
	}
	if !strings.Contains(msg, b.PenaltyAmount.StringFixed(2)) {
		t.Errorf("disclaimer should mention the penalty amount: %q", msg)
	}
	if !strings.Contains(msg, "convenience fee") {
		t.Errorf("disclaimer should mention the driver's convenience fee: %q", msg)
	}
}

func TestPenalty_FeeOverride_ChangesSplitOnly(t *testing.T) {
	t.Parallel()

	fees := service.NewFeePolicyProvider(defaultFees())
	calc := service.NewPenaltyCalculator(fees)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	scheduled := created.Add(30 * time.Minute)
	ride := acceptedRide(created, scheduled)
	now := scheduled.Add(time.Minute)

	before := calc.Calculate(ride, domain.CancelledByPassenger, now)

	if _, err := fees.Update(0.25, 0.75); err != nil {
		t.Fatalf("failed to update fees: %v", err)
	}
	after := calc.Calculate(ride, domain.CancelledByPassenger, now)

	if !after.PenaltyAmount.Equal(before.PenaltyAmount) {
		t.Errorf("penalty changed with split override: %s vs %s", after.PenaltyAmount, before.PenaltyAmount)
	}
	if !after.PlatformAmount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected platform share 50 after override, got %s", after.PlatformAmount)
	}
	if !after.DriverConvenienceFee.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected convenience fee 150 after override, got %s", after.DriverConvenienceFee)
	}
}

func TestFeePolicy_InvalidOverride_Rejected(t *testing.T) {
	t.Parallel()

	fees := service.NewFeePolicyProvider(defaultFees())

	cases := []struct {
		name                  string
		platform, convenience float64
	}{
		{"does not sum to one", 0.3, 0.3},
		{"negative platform", -0.1, 1.1},
		{"over one", 1.2, -0.2},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := fees.Update(tc.platform, tc.convenience); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}

	// Policy unchanged after rejected overrides.
	if fees.Current().PlatformFeePercentage != 0.10 {
		t.Errorf("policy mutated by rejected override: %v", fees.Current().PlatformFeePercentage)
	}
}
