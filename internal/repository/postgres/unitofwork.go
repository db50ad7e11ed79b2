package postgres

import (
	"context"
	"database/sql"

	"prebook/internal/repository"
)

// UnitOfWork runs functions inside a single *sql.Tx, exposing
// transaction-scoped repositories.
type UnitOfWork struct {
	db *sql.DB
}

// NewUnitOfWork creates a new UnitOfWork over the given database.
func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Within starts a transaction, runs fn with repositories bound to it, and
// commits on success. Any error rolls the whole batch back.
func (u *UnitOfWork) Within(ctx context.Context, fn func(tx repository.TxRepos) error) error {
	sqlTx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(&txRepos{tx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	return sqlTx.Commit()
}

// txRepos binds all repositories to one transaction.
type txRepos struct {
	tx *sql.Tx
}

func (t *txRepos) Users() repository.UserRepository {
	return NewUserRepositoryWithTx(t.tx)
}

func (t *txRepos) Rides() repository.RideRepository {
	return NewRideRepositoryWithTx(t.tx)
}

func (t *txRepos) Transactions() repository.TransactionRepository {
	return NewTransactionRepositoryWithTx(t.tx)
}

func (t *txRepos) Commissions() repository.CommissionRepository {
	return NewCommissionRepositoryWithTx(t.tx)
}
