package postgres

import (
	"context"
	"database/sql"

	"prebook/internal/domain"
)

// TransactionRepository is a PostgreSQL implementation of
// repository.TransactionRepository.
type TransactionRepository struct {
	q Querier
}

// NewTransactionRepository creates a new PostgreSQL transaction repository.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{q: db}
}

// NewTransactionRepositoryWithTx creates a transaction repository using a
// database transaction.
func NewTransactionRepositoryWithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

// Create appends a ledger entry.
func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, type, amount, description, ride_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query,
		tx.ID,
		tx.Type,
		tx.Amount,
		tx.Description,
		nullString(tx.RideID),
		nullString(tx.UserID),
		tx.Timestamp,
	)
	return err
}

// GetByRide retrieves all entries referencing a ride.
func (r *TransactionRepository) GetByRide(ctx context.Context, rideID string) ([]*domain.Transaction, error) {
	query := `
		SELECT id, type, amount, description, ride_id, user_id, created_at
		FROM transactions WHERE ride_id = $1 ORDER BY created_at
	`
	return r.queryTransactions(ctx, query, rideID)
}

// GetByUser retrieves all entries referencing a user, newest first.
func (r *TransactionRepository) GetByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	query := `
		SELECT id, type, amount, description, ride_id, user_id, created_at
		FROM transactions WHERE user_id = $1 ORDER BY created_at DESC
	`
	return r.queryTransactions(ctx, query, userID)
}

// GetRecent retrieves the most recent entries.
func (r *TransactionRepository) GetRecent(ctx context.Context, limit int) ([]*domain.Transaction, error) {
	query := `
		SELECT id, type, amount, description, ride_id, user_id, created_at
		FROM transactions ORDER BY created_at DESC LIMIT $1
	`
	return r.queryTransactions(ctx, query, limit)
}

// Count returns the total number of entries.
func (r *TransactionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n)
	return n, err
}

func (r *TransactionRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]*domain.Transaction, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.Transaction
	for rows.Next() {
		var (
			entry  domain.Transaction
			rideID sql.NullString
			userID sql.NullString
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.Type,
			&entry.Amount,
			&entry.Description,
			&rideID,
			&userID,
			&entry.Timestamp,
		); err != nil {
			return nil, err
		}
		entry.RideID = rideID.String
		entry.UserID = userID.String
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
