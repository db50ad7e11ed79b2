package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"prebook/internal/domain"
)

// UserRepository defines the persistence operations for users and their
// wallets. Debit and Credit change only the cached balance column; the
// matching ledger entry is written by the caller in the same transaction.
type UserRepository interface {
	// Create adds a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByPhone retrieves a user by phone number.
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)

	// GetAll retrieves all users.
	GetAll(ctx context.Context) ([]*domain.User, error)

	// Debit decrements the user's balance. Returns ErrInsufficientBalance
	// if the balance is lower than amount; the balance never goes negative.
	Debit(ctx context.Context, id string, amount decimal.Decimal) error

	// Credit increments the user's balance.
	Credit(ctx context.Context, id string, amount decimal.Decimal) error
}
