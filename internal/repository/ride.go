package repository

import (
	"context"

	"prebook/internal/domain"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// GetAll retrieves recent rides.
	GetAll(ctx context.Context) ([]*domain.Ride, error)

	// GetByUser retrieves rides where the user is passenger or driver.
	GetByUser(ctx context.Context, userID string) ([]*domain.Ride, error)

	// Transition updates the ride's mutable fields, guarded on the ride
	// still being in the from status. Returns ErrStatusConflict if another
	// operation moved the ride first, ErrNotFound if the ride is gone.
	Transition(ctx context.Context, ride *domain.Ride, from domain.RideStatus) error

	// Count returns the total number of rides.
	Count(ctx context.Context) (int64, error)
}
