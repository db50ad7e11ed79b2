package repository

import (
	"context"

	"prebook/internal/domain"
)

// TransactionRepository defines the persistence operations for ledger
// entries. Entries are append-only; there is no update or delete.
type TransactionRepository interface {
	// Create appends a ledger entry.
	Create(ctx context.Context, tx *domain.Transaction) error

	// GetByRide retrieves all entries referencing a ride.
	GetByRide(ctx context.Context, rideID string) ([]*domain.Transaction, error)

	// GetByUser retrieves all entries referencing a user, newest first.
	GetByUser(ctx context.Context, userID string) ([]*domain.Transaction, error)

	// GetRecent retrieves the most recent entries.
	GetRecent(ctx context.Context, limit int) ([]*domain.Transaction, error)

	// Count returns the total number of entries.
	Count(ctx context.Context) (int64, error)
}
