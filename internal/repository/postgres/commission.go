package postgres

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"prebook/internal/domain"
)

// CommissionRepository is a PostgreSQL implementation of
// repository.CommissionRepository.
type CommissionRepository struct {
	q Querier
}

// NewCommissionRepository creates a new PostgreSQL commission repository.
func NewCommissionRepository(db *sql.DB) *CommissionRepository {
	return &CommissionRepository{q: db}
}

// NewCommissionRepositoryWithTx creates a commission repository using a
// transaction.
func NewCommissionRepositoryWithTx(tx *sql.Tx) *CommissionRepository {
	return &CommissionRepository{q: tx}
}

// Create appends a commission record.
func (r *CommissionRepository) Create(ctx context.Context, c *domain.PlatformCommission) error {
	query := `
		INSERT INTO platform_commissions (id, ride_id, amount, type, source, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query,
		c.ID, c.RideID, c.Amount, c.Type, c.Source, c.Description, c.Timestamp,
	)
	return err
}

// GetRecent retrieves the most recent records.
func (r *CommissionRepository) GetRecent(ctx context.Context, limit int) ([]*domain.PlatformCommission, error) {
	query := `
		SELECT id, ride_id, amount, type, source, description, created_at
		FROM platform_commissions ORDER BY created_at DESC LIMIT $1
	`
	rows, err := r.q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.PlatformCommission
	for rows.Next() {
		var c domain.PlatformCommission
		if err := rows.Scan(&c.ID, &c.RideID, &c.Amount, &c.Type, &c.Source, &c.Description, &c.Timestamp); err != nil {
			return nil, err
		}
		records = append(records, &c)
	}
	return records, rows.Err()
}

// Total returns the net platform take across all records.
func (r *CommissionRepository) Total(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.q.QueryRowContext(ctx, `SELECT SUM(amount) FROM platform_commissions`).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total.Decimal, nil
}
