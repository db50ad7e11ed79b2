package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RideStatus represents the current lifecycle state of a ride.
type RideStatus string

const (
	RideStatusPending    RideStatus = "PENDING"
	RideStatusAccepted   RideStatus = "ACCEPTED"
	RideStatusInProgress RideStatus = "IN_PROGRESS"
	RideStatusCompleted  RideStatus = "COMPLETED"
	RideStatusCancelled  RideStatus = "CANCELLED"
)

// BookingType represents the shape of a booking.
type BookingType string

const (
	BookingPointToPoint BookingType = "POINT_TO_POINT"
	BookingHourly       BookingType = "HOURLY"
)

// CommitmentStatus tracks the escrow state of a party's commitment fee.
type CommitmentStatus string

const (
	CommitmentPending   CommitmentStatus = "pending"
	CommitmentPaid      CommitmentStatus = "paid"
	CommitmentRefunded  CommitmentStatus = "refunded"
	CommitmentForfeited CommitmentStatus = "forfeited"
)

// CancelParty identifies which side of a ride cancelled it.
type CancelParty string

const (
	CancelledByPassenger CancelParty = "passenger"
	CancelledByDriver    CancelParty = "driver"
)

// Commitment is one party's escrowed deposit on a ride.
type Commitment struct {
	Amount decimal.Decimal
	Status CommitmentStatus
}

// CancellationDetails is the audit snapshot written when a ride is cancelled.
// The amounts and percentages are frozen at cancellation time and never
// recomputed.
type CancellationDetails struct {
	CancelledBy              CancelParty
	CancelledAt              time.Time
	Reason                   string
	PenaltyAmount            decimal.Decimal
	PlatformCommission       decimal.Decimal
	PassengerRefundAmount    decimal.Decimal
	DriverRefundAmount       decimal.Decimal
	PassengerConvenienceFee  decimal.Decimal
	DriverConvenienceFee     decimal.Decimal
	PlatformFeePercentage    float64
	ConvenienceFeePercentage float64
	RefundRatio              float64
}

// Ride represents a scheduled booking. Fare and CommitmentFee are fixed at
// creation; Status only ever moves forward through the lifecycle.
type Ride struct {
	ID          string
	PassengerID string
	DriverID    string // empty until accepted
	BookingType BookingType
	Pickup      string
	Destination string          // POINT_TO_POINT only
	DistanceKm  decimal.Decimal // POINT_TO_POINT only
	Hours       decimal.Decimal // HOURLY only

	Fare          decimal.Decimal
	CommitmentFee decimal.Decimal

	PassengerCommitment Commitment
	DriverCommitment    Commitment

	Status        RideStatus
	ScheduledTime time.Time
	CreatedAt     time.Time
	AcceptedAt    time.Time
	StartedAt     time.Time
	CompletedAt   time.Time

	DriverBonus  decimal.Decimal // set only on completion
	Cancellation *CancellationDetails
}

// CanCancel reports whether the ride is in a cancellable state.
func (r *Ride) CanCancel() bool {
	return r.Status == RideStatusPending || r.Status == RideStatusAccepted
}

// HasDriver reports whether a driver has committed to the ride.
func (r *Ride) HasDriver() bool {
	return r.DriverID != ""
}

// Route describes the booking for ledger entry descriptions.
func (r *Ride) Route() string {
	if r.BookingType == BookingHourly {
		return r.Pickup + " (hourly)"
	}
	return r.Pickup + " to " + r.Destination
}
