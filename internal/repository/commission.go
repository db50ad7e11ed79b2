package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"prebook/internal/domain"
)

// CommissionRepository defines the persistence operations for platform
// commission records. Records are append-only.
type CommissionRepository interface {
	// Create appends a commission record.
	Create(ctx context.Context, c *domain.PlatformCommission) error

	// GetRecent retrieves the most recent records.
	GetRecent(ctx context.Context, limit int) ([]*domain.PlatformCommission, error)

	// Total returns the net platform take across all records.
	Total(ctx context.Context) (decimal.Decimal, error)
}
