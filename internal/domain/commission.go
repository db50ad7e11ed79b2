package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionType classifies a platform commission record.
type CommissionType string

const (
	CommissionCancellation CommissionType = "CANCELLATION"
	CommissionRide         CommissionType = "RIDE_COMMISSION"
)

// CommissionSource identifies which party the commission originated from.
type CommissionSource string

const (
	SourcePassenger CommissionSource = "PASSENGER"
	SourceDriver    CommissionSource = "DRIVER"
)

// PlatformCommission records the platform's take (or expense, when Amount is
// negative, e.g. a driver bonus) per ride. Purely additive audit trail.
type PlatformCommission struct {
	ID          string
	RideID      string
	Amount      decimal.Decimal
	Type        CommissionType
	Source      CommissionSource
	Description string
	Timestamp   time.Time
}
