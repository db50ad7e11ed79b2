package repository

import "context"

// TxRepos exposes transaction-scoped repositories. All writes made through
// them commit or roll back together.
type TxRepos interface {
	Users() UserRepository
	Rides() RideRepository
	Transactions() TransactionRepository
	Commissions() CommissionRepository
}

// UnitOfWork runs a function inside a single transaction boundary. If fn
// returns an error the transaction is rolled back and no partial write is
// observable; otherwise it is committed.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(tx TxRepos) error) error
}
