package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"prebook/internal/domain"
	"prebook/internal/redis"
	"prebook/internal/repository"
)

// rideLockTTL bounds how long a ride lock can outlive a crashed holder.
const rideLockTTL = 10 * time.Second

// RideService coordinates the ride lifecycle. Every transition that moves
// money runs inside a single unit of work: the status change, the wallet
// updates and the ledger entries commit or roll back together.
type RideService struct {
	uow                 repository.UnitOfWork
	rideRepo            repository.RideRepository
	pricing             *PricingService
	penalties           *PenaltyCalculator
	fees                *FeePolicyProvider
	locks               redis.LockStoreInterface
	notificationService *NotificationService
	now                 func() time.Time
}

// NewRideService creates a new RideService.
func NewRideService(
	uow repository.UnitOfWork,
	rideRepo repository.RideRepository,
	pricing *PricingService,
	penalties *PenaltyCalculator,
	fees *FeePolicyProvider,
	locks redis.LockStoreInterface,
	notificationService *NotificationService,
) *RideService {
	return &RideService{
		uow:                 uow,
		rideRepo:            rideRepo,
		pricing:             pricing,
		penalties:           penalties,
		fees:                fees,
		locks:               locks,
		notificationService: notificationService,
		now:                 time.Now,
	}
}

// WithClock overrides the service clock. Penalty amounts depend on the
// cancellation instant, so tests pin it.
func (s *RideService) WithClock(now func() time.Time) *RideService {
	s.now = now
	return s
}

// BookRideRequest contains the parameters for booking a ride.
type BookRideRequest struct {
	PassengerID   string
	BookingType   domain.BookingType
	Pickup        string
	Destination   string
	DistanceKm    decimal.Decimal
	Hours         decimal.Decimal
	ScheduledTime time.Time
}

// Book creates a ride in PENDING state and escrows the passenger's
// commitment fee.
func (s *RideService) Book(ctx context.Context, req BookRideRequest) (*domain.Ride, error) {
	if err := s.validateBookRequest(req); err != nil {
		return nil, err
	}

	fare, fee, err := s.pricing.Quote(req.BookingType, req.DistanceKm, req.Hours)
	if err != nil {
		return nil, err
	}

	var ride *domain.Ride
	err = s.uow.Within(ctx, func(tx repository.TxRepos) error {
		passenger, err := tx.Users().GetByID(ctx, req.PassengerID)
		if err != nil {
			return err
		}
		if passenger.Role != domain.RolePassenger {
			return ErrNotPassenger
		}

		ride = &domain.Ride{
			ID:            uuid.New().String(),
			PassengerID:   req.PassengerID,
			BookingType:   req.BookingType,
			Pickup:        req.Pickup,
			Destination:   req.Destination,
			DistanceKm:    req.DistanceKm,
			Hours:         req.Hours,
			Fare:          fare,
			CommitmentFee: fee,
			PassengerCommitment: domain.Commitment{
				Amount: fee,
				Status: domain.CommitmentPaid,
			},
			DriverCommitment: domain.Commitment{
				Amount: fee,
				Status: domain.CommitmentPending,
			},
			Status:        domain.RideStatusPending,
			ScheduledTime: req.ScheduledTime,
			CreatedAt:     s.now(),
		}
		if err := tx.Rides().Create(ctx, ride); err != nil {
			return err
		}

		w := newWalletLedger(tx, s.now)
		return w.debit(ctx, req.PassengerID, fee, domain.TxCommitmentFee, ride.ID,
			fmt.Sprintf("Commitment fee for ride %s", ride.Route()))
	})
	if err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyRideBooked(ctx, ride)
	}
	return ride, nil
}

// Accept assigns a driver to a PENDING ride and escrows the driver's matching
// commitment fee.
func (s *RideService) Accept(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	release, err := s.lockRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	defer release()

	var ride *domain.Ride
	err = s.uow.Within(ctx, func(tx repository.TxRepos) error {
		var err error
		ride, err = tx.Rides().GetByID(ctx, rideID)
		if err != nil {
			return err
		}
		if ride.Status != domain.RideStatusPending {
			return ErrInvalidStateTransition
		}

		driver, err := tx.Users().GetByID(ctx, driverID)
		if err != nil {
			return err
		}
		if driver.Role != domain.RoleDriver {
			return ErrNotDriver
		}

		w := newWalletLedger(tx, s.now)
		if err := w.debit(ctx, driverID, ride.CommitmentFee, domain.TxCommitmentFee, ride.ID,
			fmt.Sprintf("Commitment fee for accepting ride %s", ride.Route())); err != nil {
			return err
		}

		ride.DriverID = driverID
		ride.Status = domain.RideStatusAccepted
		ride.AcceptedAt = s.now()
		ride.DriverCommitment = domain.Commitment{
			Amount: ride.CommitmentFee,
			Status: domain.CommitmentPaid,
		}
		return asTransitionErr(tx.Rides().Transition(ctx, ride, domain.RideStatusPending))
	})
	if err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyRideAccepted(ctx, ride)
	}
	return ride, nil
}

// Start moves an ACCEPTED ride to IN_PROGRESS. Only the assigned driver can
// start the ride; no money moves.
func (s *RideService) Start(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	release, err := s.lockRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	defer release()

	var ride *domain.Ride
	err = s.uow.Within(ctx, func(tx repository.TxRepos) error {
		var err error
		ride, err = tx.Rides().GetByID(ctx, rideID)
		if err != nil {
			return err
		}
		if ride.Status != domain.RideStatusAccepted {
			return ErrInvalidStateTransition
		}
		if ride.DriverID != driverID {
			return ErrNotAssignedDriver
		}

		ride.Status = domain.RideStatusInProgress
		ride.StartedAt = s.now()
		return asTransitionErr(tx.Rides().Transition(ctx, ride, domain.RideStatusAccepted))
	})
	if err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyRideStarted(ctx, ride)
	}
	return ride, nil
}

// Complete settles an IN_PROGRESS ride: the driver's escrow is released, the
// passenger is charged the fare, and the driver receives the fare, the
// passenger's commitment fee and a completion bonus. The bonus is platform
// money, recorded as a negative commission.
func (s *RideService) Complete(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	release, err := s.lockRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	defer release()

	var ride *domain.Ride
	err = s.uow.Within(ctx, func(tx repository.TxRepos) error {
		var err error
		ride, err = tx.Rides().GetByID(ctx, rideID)
		if err != nil {
			return err
		}
		if ride.Status != domain.RideStatusInProgress {
			return ErrInvalidStateTransition
		}
		if ride.DriverID != driverID {
			return ErrNotAssignedDriver
		}

		w := newWalletLedger(tx, s.now)
		fee := ride.CommitmentFee

		if err := w.credit(ctx, ride.DriverID, fee, domain.TxRefund, ride.ID,
			"Commitment fee refund for completed ride"); err != nil {
			return err
		}
		// If the passenger cannot cover the fare, the whole settlement rolls
		// back and the ride stays IN_PROGRESS.
		if err := w.debit(ctx, ride.PassengerID, ride.Fare, domain.TxDebit, ride.ID,
			fmt.Sprintf("Fare payment for ride %s", ride.Route())); err != nil {
			return err
		}
		if err := w.credit(ctx, ride.DriverID, ride.Fare.Add(fee), domain.TxCredit, ride.ID,
			"Fare received including passenger commitment fee"); err != nil {
			return err
		}

		bonus := ride.Fare.Mul(decimal.NewFromFloat(s.fees.Current().DriverBonusRate)).Round(0)
		if bonus.IsPositive() {
			if err := w.credit(ctx, ride.DriverID, bonus, domain.TxCredit, ride.ID,
				"Completion bonus"); err != nil {
				return err
			}
			// Negative record: the bonus is paid out of the platform.
			if err := tx.Commissions().Create(ctx, &domain.PlatformCommission{
				ID:          uuid.New().String(),
				RideID:      ride.ID,
				Amount:      bonus.Neg(),
				Type:        domain.CommissionRide,
				Source:      domain.SourceDriver,
				Description: "Driver completion bonus payout",
				Timestamp:   s.now(),
			}); err != nil {
				return err
			}
		}

		ride.Status = domain.RideStatusCompleted
		ride.CompletedAt = s.now()
		ride.DriverBonus = bonus
		ride.DriverCommitment.Status = domain.CommitmentRefunded
		return asTransitionErr(tx.Rides().Transition(ctx, ride, domain.RideStatusInProgress))
	})
	if err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyRideCompleted(ctx, ride)
	}
	return ride, nil
}

// Cancel cancels a PENDING or ACCEPTED ride. The canceller's escrow is
// released in full, the penalty is charged back, and the penalty is split
// between the platform and the other party's convenience fee. The other
// party's escrow is always returned whole.
func (s *RideService) Cancel(ctx context.Context, rideID string, cancelledBy domain.CancelParty, reason string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if cancelledBy != domain.CancelledByPassenger && cancelledBy != domain.CancelledByDriver {
		return nil, ErrInvalidCancelParty
	}

	release, err := s.lockRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	defer release()

	var ride *domain.Ride
	err = s.uow.Within(ctx, func(tx repository.TxRepos) error {
		var err error
		ride, err = tx.Rides().GetByID(ctx, rideID)
		if err != nil {
			return err
		}
		if !ride.CanCancel() {
			return ErrInvalidStateTransition
		}
		if cancelledBy == domain.CancelledByDriver && !ride.HasDriver() {
			return ErrNotRideParty
		}

		now := s.now()
		b := s.penalties.Calculate(ride, cancelledBy, now)
		w := newWalletLedger(tx, s.now)

		if b.PenaltyAmount.IsPositive() {
			if err := s.settlePenalty(ctx, tx, w, ride, cancelledBy, b); err != nil {
				return err
			}
		} else {
			if err := s.refundAll(ctx, w, ride); err != nil {
				return err
			}
		}

		prev := ride.Status
		ride.Status = domain.RideStatusCancelled
		ride.Cancellation = &domain.CancellationDetails{
			CancelledBy:              cancelledBy,
			CancelledAt:              now,
			Reason:                   reason,
			PenaltyAmount:            b.PenaltyAmount.Round(2),
			PlatformCommission:       b.PlatformAmount.Round(2),
			PassengerRefundAmount:    b.PassengerRefundAmount.Round(2),
			DriverRefundAmount:       b.DriverRefundAmount.Round(2),
			PassengerConvenienceFee:  b.PassengerConvenienceFee.Round(2),
			DriverConvenienceFee:     b.DriverConvenienceFee.Round(2),
			PlatformFeePercentage:    b.PlatformFeePercentage,
			ConvenienceFeePercentage: b.ConvenienceFeePercentage,
			RefundRatio:              b.RefundRatio,
		}
		return asTransitionErr(tx.Rides().Transition(ctx, ride, prev))
	})
	if err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyRideCancelled(ctx, ride)
	}
	return ride, nil
}

// settlePenalty applies the money movements for a penalised cancellation.
// The canceller's escrow is released in full and the penalty debited back,
// so the ledger shows both the release and the charge. Crediting before
// debiting guarantees the penalty debit cannot fail on balance.
func (s *RideService) settlePenalty(ctx context.Context, tx repository.TxRepos, w *walletLedger, ride *domain.Ride, cancelledBy domain.CancelParty, b PenaltyBreakdown) error {
	fee := ride.CommitmentFee

	cancellerID := ride.PassengerID
	otherID := ride.DriverID
	otherConvenience := b.DriverConvenienceFee
	if cancelledBy == domain.CancelledByDriver {
		cancellerID = ride.DriverID
		otherID = ride.PassengerID
		otherConvenience = b.PassengerConvenienceFee
	}

	if err := w.credit(ctx, cancellerID, fee, domain.TxRefund, ride.ID,
		"Commitment fee release on cancellation"); err != nil {
		return err
	}
	if err := w.debit(ctx, cancellerID, b.PenaltyAmount, domain.TxDebit, ride.ID,
		fmt.Sprintf("Cancellation penalty for ride %s", ride.Route())); err != nil {
		return err
	}

	if otherID != "" {
		if err := w.credit(ctx, otherID, fee, domain.TxRefund, ride.ID,
			"Commitment fee refund on counterparty cancellation"); err != nil {
			return err
		}
		if err := w.credit(ctx, otherID, otherConvenience, domain.TxCredit, ride.ID,
			"Convenience fee for cancelled ride"); err != nil {
			return err
		}
	}

	if b.PlatformAmount.IsPositive() {
		if err := w.platformEntry(ctx, b.PlatformAmount, ride.ID,
			"Platform share of cancellation penalty"); err != nil {
			return err
		}
		source := domain.SourcePassenger
		if cancelledBy == domain.CancelledByDriver {
			source = domain.SourceDriver
		}
		if err := tx.Commissions().Create(ctx, &domain.PlatformCommission{
			ID:          uuid.New().String(),
			RideID:      ride.ID,
			Amount:      b.PlatformAmount.Round(2),
			Type:        domain.CommissionCancellation,
			Source:      source,
			Description: "Platform share of cancellation penalty",
			Timestamp:   s.now(),
		}); err != nil {
			return err
		}
	}

	if cancelledBy == domain.CancelledByPassenger {
		ride.PassengerCommitment.Status = domain.CommitmentForfeited
		if ride.HasDriver() {
			ride.DriverCommitment.Status = domain.CommitmentRefunded
		}
	} else {
		ride.DriverCommitment.Status = domain.CommitmentForfeited
		ride.PassengerCommitment.Status = domain.CommitmentRefunded
	}
	return nil
}

// refundAll returns both escrows whole. Used when the penalty is zero, which
// includes the passenger cancelling before any driver committed.
func (s *RideService) refundAll(ctx context.Context, w *walletLedger, ride *domain.Ride) error {
	if err := w.credit(ctx, ride.PassengerID, ride.CommitmentFee, domain.TxRefund, ride.ID,
		"Full commitment fee refund on cancellation"); err != nil {
		return err
	}
	ride.PassengerCommitment.Status = domain.CommitmentRefunded
	if ride.HasDriver() {
		if err := w.credit(ctx, ride.DriverID, ride.CommitmentFee, domain.TxRefund, ride.ID,
			"Full commitment fee refund on cancellation"); err != nil {
			return err
		}
		ride.DriverCommitment.Status = domain.CommitmentRefunded
	}
	return nil
}

// PenaltyPreview computes what cancelling now would cost, without changing
// anything.
func (s *RideService) PenaltyPreview(ctx context.Context, rideID string, cancelledBy domain.CancelParty) (PenaltyBreakdown, string, error) {
	if rideID == "" {
		return PenaltyBreakdown{}, "", ErrInvalidRideID
	}
	if cancelledBy != domain.CancelledByPassenger && cancelledBy != domain.CancelledByDriver {
		return PenaltyBreakdown{}, "", ErrInvalidCancelParty
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return PenaltyBreakdown{}, "", err
	}
	if !ride.CanCancel() {
		return PenaltyBreakdown{}, "", ErrInvalidStateTransition
	}
	if cancelledBy == domain.CancelledByDriver && !ride.HasDriver() {
		return PenaltyBreakdown{}, "", ErrNotRideParty
	}

	b := s.penalties.Calculate(ride, cancelledBy, s.now())
	return b, s.penalties.Disclaimer(cancelledBy, b), nil
}

// GetRide retrieves a ride by ID.
func (s *RideService) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	return s.rideRepo.GetByID(ctx, rideID)
}

// ListRides retrieves recent rides, optionally filtered to one user.
func (s *RideService) ListRides(ctx context.Context, userID string) ([]*domain.Ride, error) {
	if userID != "" {
		return s.rideRepo.GetByUser(ctx, userID)
	}
	return s.rideRepo.GetAll(ctx)
}

func (s *RideService) validateBookRequest(req BookRideRequest) error {
	if req.PassengerID == "" {
		return ErrInvalidPassengerID
	}
	if req.Pickup == "" {
		return ErrMissingPickup
	}
	if req.ScheduledTime.IsZero() {
		return ErrMissingScheduledTime
	}
	switch req.BookingType {
	case domain.BookingPointToPoint:
		if req.Destination == "" || !req.DistanceKm.IsPositive() {
			return ErrMissingPointToPointFields
		}
	case domain.BookingHourly:
		if !req.Hours.IsPositive() {
			return ErrMissingHours
		}
	default:
		return ErrInvalidBookingType
	}
	return nil
}

// lockRide fences concurrent transitions on the same ride. If Redis is
// unavailable the lock is skipped; the guarded status update in the store
// remains the authority.
func (s *RideService) lockRide(ctx context.Context, rideID string) (func(), error) {
	if s.locks == nil {
		return func() {}, nil
	}
	ok, err := s.locks.AcquireRideLock(ctx, rideID, rideLockTTL)
	if err != nil {
		return func() {}, nil
	}
	if !ok {
		return nil, ErrRideBusy
	}
	return func() {
		_ = s.locks.ReleaseRideLock(ctx, rideID)
	}, nil
}

// asTransitionErr maps the store's optimistic-guard conflict to the service
// level error.
func asTransitionErr(err error) error {
	if errors.Is(err, repository.ErrStatusConflict) {
		return ErrInvalidStateTransition
	}
	return err
}
