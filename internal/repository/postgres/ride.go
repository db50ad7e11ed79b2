package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"prebook/internal/domain"
	"prebook/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

const rideColumns = `
	id, passenger_id, driver_id, booking_type, pickup, destination,
	distance_km, hours, fare, commitment_fee,
	passenger_commitment_status, driver_commitment_status,
	status, scheduled_time, created_at, accepted_at, started_at, completed_at,
	driver_bonus,
	cancelled_by, cancelled_at, cancel_reason, penalty_amount,
	platform_commission, passenger_refund, driver_refund,
	passenger_convenience_fee, driver_convenience_fee,
	platform_fee_pct, convenience_fee_pct, refund_ratio
`

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (
			id, passenger_id, driver_id, booking_type, pickup, destination,
			distance_km, hours, fare, commitment_fee,
			passenger_commitment_status, driver_commitment_status,
			status, scheduled_time, created_at, driver_bonus
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.PassengerID,
		nullString(ride.DriverID),
		ride.BookingType,
		ride.Pickup,
		nullString(ride.Destination),
		ride.DistanceKm,
		ride.Hours,
		ride.Fare,
		ride.CommitmentFee,
		ride.PassengerCommitment.Status,
		ride.DriverCommitment.Status,
		ride.Status,
		ride.ScheduledTime,
		ride.CreatedAt,
		ride.DriverBonus,
	)
	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`
	row := r.q.QueryRowContext(ctx, query, id)

	ride, err := scanRide(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

// GetAll retrieves recent rides.
func (r *RideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides ORDER BY created_at DESC LIMIT 100`
	return r.queryRides(ctx, query)
}

// GetByUser retrieves rides where the user is passenger or driver.
func (r *RideRepository) GetByUser(ctx context.Context, userID string) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides
		WHERE passenger_id = $1 OR driver_id = $1 ORDER BY created_at DESC`
	return r.queryRides(ctx, query, userID)
}

// Transition updates the ride's mutable fields, guarded on the current
// status. Immutable fields (fare, commitment fee, scheduling) are never
// touched after creation.
func (r *RideRepository) Transition(ctx context.Context, ride *domain.Ride, from domain.RideStatus) error {
	query := `
		UPDATE rides SET
			driver_id = $1,
			passenger_commitment_status = $2,
			driver_commitment_status = $3,
			status = $4,
			accepted_at = $5,
			started_at = $6,
			completed_at = $7,
			driver_bonus = $8,
			cancelled_by = $9,
			cancelled_at = $10,
			cancel_reason = $11,
			penalty_amount = $12,
			platform_commission = $13,
			passenger_refund = $14,
			driver_refund = $15,
			passenger_convenience_fee = $16,
			driver_convenience_fee = $17,
			platform_fee_pct = $18,
			convenience_fee_pct = $19,
			refund_ratio = $20
		WHERE id = $21 AND status = $22
	`

	var (
		cancelledBy             sql.NullString
		cancelledAt             sql.NullTime
		cancelReason            sql.NullString
		penaltyAmount           decimal.NullDecimal
		platformCommission      decimal.NullDecimal
		passengerRefund         decimal.NullDecimal
		driverRefund            decimal.NullDecimal
		passengerConvenienceFee decimal.NullDecimal
		driverConvenienceFee    decimal.NullDecimal
		platformFeePct          sql.NullFloat64
		convenienceFeePct       sql.NullFloat64
		refundRatio             sql.NullFloat64
	)
	if c := ride.Cancellation; c != nil {
		cancelledBy = sql.NullString{String: string(c.CancelledBy), Valid: true}
		cancelledAt = sql.NullTime{Time: c.CancelledAt, Valid: true}
		cancelReason = nullString(c.Reason)
		penaltyAmount = decimal.NullDecimal{Decimal: c.PenaltyAmount, Valid: true}
		platformCommission = decimal.NullDecimal{Decimal: c.PlatformCommission, Valid: true}
		passengerRefund = decimal.NullDecimal{Decimal: c.PassengerRefundAmount, Valid: true}
		driverRefund = decimal.NullDecimal{Decimal: c.DriverRefundAmount, Valid: true}
		passengerConvenienceFee = decimal.NullDecimal{Decimal: c.PassengerConvenienceFee, Valid: true}
		driverConvenienceFee = decimal.NullDecimal{Decimal: c.DriverConvenienceFee, Valid: true}
		platformFeePct = sql.NullFloat64{Float64: c.PlatformFeePercentage, Valid: true}
		convenienceFeePct = sql.NullFloat64{Float64: c.ConvenienceFeePercentage, Valid: true}
		refundRatio = sql.NullFloat64{Float64: c.RefundRatio, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query,
		nullString(ride.DriverID),
		ride.PassengerCommitment.Status,
		ride.DriverCommitment.Status,
		ride.Status,
		nullTime(ride.AcceptedAt),
		nullTime(ride.StartedAt),
		nullTime(ride.CompletedAt),
		ride.DriverBonus,
		cancelledBy,
		cancelledAt,
		cancelReason,
		penaltyAmount,
		platformCommission,
		passengerRefund,
		driverRefund,
		passengerConvenienceFee,
		driverConvenienceFee,
		platformFeePct,
		convenienceFeePct,
		refundRatio,
		ride.ID,
		from,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	if _, err := r.GetByID(ctx, ride.ID); err != nil {
		return err
	}
	return repository.ErrStatusConflict
}

// Count returns the total number of rides.
func (r *RideRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM rides`).Scan(&n)
	return n, err
}

func (r *RideRepository) queryRides(ctx context.Context, query string, args ...any) ([]*domain.Ride, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var (
		ride                    domain.Ride
		driverID                sql.NullString
		destination             sql.NullString
		acceptedAt              sql.NullTime
		startedAt               sql.NullTime
		completedAt             sql.NullTime
		cancelledBy             sql.NullString
		cancelledAt             sql.NullTime
		cancelReason            sql.NullString
		penaltyAmount           decimal.NullDecimal
		platformCommission      decimal.NullDecimal
		passengerRefund         decimal.NullDecimal
		driverRefund            decimal.NullDecimal
		passengerConvenienceFee decimal.NullDecimal
		driverConvenienceFee    decimal.NullDecimal
		platformFeePct          sql.NullFloat64
		convenienceFeePct       sql.NullFloat64
		refundRatio             sql.NullFloat64
	)

	err := row.Scan(
		&ride.ID,
		&ride.PassengerID,
		&driverID,
		&ride.BookingType,
		&ride.Pickup,
		&destination,
		&ride.DistanceKm,
		&ride.Hours,
		&ride.Fare,
		&ride.CommitmentFee,
		&ride.PassengerCommitment.Status,
		&ride.DriverCommitment.Status,
		&ride.Status,
		&ride.ScheduledTime,
		&ride.CreatedAt,
		&acceptedAt,
		&startedAt,
		&completedAt,
		&ride.DriverBonus,
		&cancelledBy,
		&cancelledAt,
		&cancelReason,
		&penaltyAmount,
		&platformCommission,
		&passengerRefund,
		&driverRefund,
		&passengerConvenienceFee,
		&driverConvenienceFee,
		&platformFeePct,
		&convenienceFeePct,
		&refundRatio,
	)
	if err != nil {
		return nil, err
	}

	ride.DriverID = driverID.String
	ride.Destination = destination.String
	ride.AcceptedAt = acceptedAt.Time
	ride.StartedAt = startedAt.Time
	ride.CompletedAt = completedAt.Time

	// Both parties commit the same base amount.
	ride.PassengerCommitment.Amount = ride.CommitmentFee
	ride.DriverCommitment.Amount = ride.CommitmentFee

	if cancelledBy.Valid {
		ride.Cancellation = &domain.CancellationDetails{
			CancelledBy:              domain.CancelParty(cancelledBy.String),
			CancelledAt:              cancelledAt.Time,
			Reason:                   cancelReason.String,
			PenaltyAmount:            penaltyAmount.Decimal,
			PlatformCommission:       platformCommission.Decimal,
			PassengerRefundAmount:    passengerRefund.Decimal,
			DriverRefundAmount:       driverRefund.Decimal,
			PassengerConvenienceFee:  passengerConvenienceFee.Decimal,
			DriverConvenienceFee:     driverConvenienceFee.Decimal,
			PlatformFeePercentage:    platformFeePct.Float64,
			ConvenienceFeePercentage: convenienceFeePct.Float64,
			RefundRatio:              refundRatio.Float64,
		}
	}

	return &ride, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
