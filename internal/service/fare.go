package service

import (
	"github.com/shopspring/decimal"

	"prebook/internal/config"
	"prebook/internal/domain"
)

// PricingService derives fares and commitment fees at booking time. Both are
// computed once here and immutable on the ride afterwards.
type PricingService struct {
	perKm   decimal.Decimal
	perHour decimal.Decimal
	fees    *FeePolicyProvider
}

// NewPricingService creates a new PricingService.
func NewPricingService(cfg config.PricingConfig, fees *FeePolicyProvider) *PricingService {
	return &PricingService{
		perKm:   decimal.NewFromFloat(cfg.PerKmRate),
		perHour: decimal.NewFromFloat(cfg.PerHourRate),
		fees:    fees,
	}
}

// Quote computes the fare and commitment fee for a booking. The commitment
// fee is rounded to whole currency units; the fare to the ledger minimum
// unit.
func (s *PricingService) Quote(bookingType domain.BookingType, distanceKm, hours decimal.Decimal) (fare, commitmentFee decimal.Decimal, err error) {
	switch bookingType {
	case domain.BookingPointToPoint:
		fare = distanceKm.Mul(s.perKm)
	case domain.BookingHourly:
		fare = hours.Mul(s.perHour)
	default:
		return decimal.Zero, decimal.Zero, ErrInvalidBookingType
	}

	fare = fare.Round(2)
	rate := decimal.NewFromFloat(s.fees.Current().CommitmentFeeRate)
	commitmentFee = fare.Mul(rate).Round(0)
	return fare, commitmentFee, nil
}
