package service

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"prebook/internal/domain"
)

// Penalty curve parameters. The refund ratio decays from e^-2 of the booking
// lead proportion toward zero as cancellation approaches the scheduled time.
const (
	decayFactor = -2.0

	driverMinPenaltyBase     = 0.05
	driverFloorWindowMins    = 60.0
	passengerMinPenaltyBase  = 0.02
	passengerFloorWindowMins = 30.0

	passengerRefundMultiplier = 0.9
	driverRefundMultiplier    = 1.1
)

// PenaltyBreakdown is the full result of a penalty computation. Every amount
// a cancellation settlement moves is derived here and nowhere else, so a
// preview and the settlement that follows it always agree.
type PenaltyBreakdown struct {
	PenaltyAmount           decimal.Decimal
	PlatformAmount          decimal.Decimal
	ConvenienceFee          decimal.Decimal
	PassengerRefundAmount   decimal.Decimal
	DriverRefundAmount      decimal.Decimal
	PassengerConvenienceFee decimal.Decimal
	DriverConvenienceFee    decimal.Decimal

	CommitmentFee    decimal.Decimal
	RefundRatio      float64
	MinutesUntilRide float64

	PlatformFeePercentage    float64
	ConvenienceFeePercentage float64

	CancelledBy domain.CancelParty
	HasDriver   bool
	RideStatus  domain.RideStatus
}

// PenaltyCalculator computes cancellation penalties. It is pure: the clock is
// passed in, and no state is read beyond the ride and the fee policy.
type PenaltyCalculator struct {
	fees *FeePolicyProvider
}

// NewPenaltyCalculator creates a new PenaltyCalculator.
func NewPenaltyCalculator(fees *FeePolicyProvider) *PenaltyCalculator {
	return &PenaltyCalculator{fees: fees}
}

// Calculate computes the penalty breakdown for cancelling the given ride at
// the given instant.
//
// A passenger cancelling before any driver committed pays nothing. Otherwise
// the refund ratio decays toward zero as the scheduled time approaches, with
// a party-specific minimum penalty floor, a 0.9x (passenger) or 1.1x (driver)
// refund adjustment, and the convenience share paid to the other party only
// once a driver has committed.
func (c *PenaltyCalculator) Calculate(ride *domain.Ride, cancelledBy domain.CancelParty, now time.Time) PenaltyBreakdown {
	policy := c.fees.Current()
	fee := ride.CommitmentFee

	b := PenaltyBreakdown{
		PenaltyAmount:            decimal.Zero,
		PlatformAmount:           decimal.Zero,
		ConvenienceFee:           decimal.Zero,
		PassengerRefundAmount:    decimal.Zero,
		DriverRefundAmount:       decimal.Zero,
		PassengerConvenienceFee:  decimal.Zero,
		DriverConvenienceFee:     decimal.Zero,
		CommitmentFee:            fee,
		PlatformFeePercentage:    policy.PlatformFeePercentage,
		ConvenienceFeePercentage: policy.ConvenienceFeePercentage,
		CancelledBy:              cancelledBy,
		HasDriver:                ride.HasDriver(),
		RideStatus:               ride.Status,
	}

	// No driver has committed anything yet: the passenger walks away whole.
	if cancelledBy == domain.CancelledByPassenger && !ride.HasDriver() {
		b.RefundRatio = 1
		b.PassengerRefundAmount = fee
		return b
	}

	minutes := ride.ScheduledTime.Sub(now).Minutes()
	if minutes < 0 {
		minutes = 0
	}
	b.MinutesUntilRide = minutes

	refundRatio := 0.0
	if minutes > 0 {
		lead := ride.ScheduledTime.Sub(ride.CreatedAt).Seconds()
		elapsed := now.Sub(ride.CreatedAt).Seconds()
		if elapsed > 0 {
			refundRatio = math.Exp(decayFactor) * lead / elapsed
		}
		refundRatio = clamp01(refundRatio)

		// Late cancellations never refund in full: the floor scales with
		// how close to the scheduled time the cancellation lands.
		var minPenaltyRatio float64
		if cancelledBy == domain.CancelledByDriver {
			minPenaltyRatio = driverMinPenaltyBase * math.Min(1, driverFloorWindowMins/math.Max(1, minutes))
		} else {
			minPenaltyRatio = passengerMinPenaltyBase * math.Min(1, passengerFloorWindowMins/math.Max(1, minutes))
		}
		if refundRatio > 1-minPenaltyRatio {
			refundRatio = 1 - minPenaltyRatio
		}
	}
	b.RefundRatio = refundRatio

	refund := fee.Mul(decimal.NewFromFloat(refundRatio))
	if cancelledBy == domain.CancelledByPassenger {
		refund = refund.Mul(decimal.NewFromFloat(passengerRefundMultiplier))
	} else {
		refund = refund.Mul(decimal.NewFromFloat(driverRefundMultiplier))
	}
	if refund.GreaterThan(fee) {
		refund = fee
	}

	penalty := fee.Sub(refund)
	b.PenaltyAmount = penalty
	b.PlatformAmount = penalty.Mul(decimal.NewFromFloat(policy.PlatformFeePercentage))
	b.ConvenienceFee = penalty.Mul(decimal.NewFromFloat(policy.ConvenienceFeePercentage))

	if cancelledBy == domain.CancelledByPassenger {
		b.PassengerRefundAmount = refund
		if ride.Status == domain.RideStatusAccepted {
			b.DriverConvenienceFee = b.ConvenienceFee
		}
	} else {
		b.DriverRefundAmount = refund
		if ride.Status == domain.RideStatusAccepted {
			b.PassengerConvenienceFee = b.ConvenienceFee
		}
	}

	return b
}

// Disclaimer renders the human-readable warning shown before a cancellation
// is confirmed.
func (c *PenaltyCalculator) Disclaimer(cancelledBy domain.CancelParty, b PenaltyBreakdown) string {
	if b.PenaltyAmount.IsZero() {
		if cancelledBy == domain.CancelledByPassenger && !b.HasDriver {
			return "No driver has accepted this ride yet. You will receive a full refund of your commitment fee."
		}
		return fmt.Sprintf("Cancelling now refunds your full commitment fee of %s.", b.CommitmentFee.StringFixed(2))
	}

	var refund decimal.Decimal
	if cancelledBy == domain.CancelledByPassenger {
		refund = b.PassengerRefundAmount
	} else {
		refund = b.DriverRefundAmount
	}

	msg := fmt.Sprintf(
		"Cancelling %.0f minutes before the scheduled time incurs a penalty of %s out of your %s commitment fee. You will be refunded %s.",
		b.MinutesUntilRide,
		b.PenaltyAmount.StringFixed(2),
		b.CommitmentFee.StringFixed(2),
		refund.StringFixed(2),
	)
	if b.RideStatus == domain.RideStatusAccepted {
		if cancelledBy == domain.CancelledByPassenger {
			msg += fmt.Sprintf(" The driver will receive a convenience fee of %s.", b.DriverConvenienceFee.StringFixed(2))
		} else {
			msg += fmt.Sprintf(" The passenger will receive a convenience fee of %s.", b.PassengerConvenienceFee.StringFixed(2))
		}
	}
	return msg
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
