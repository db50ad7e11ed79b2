package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"prebook/internal/domain"
	"prebook/internal/repository"
)

// UserService handles registration and wallet queries.
type UserService struct {
	uow            repository.UnitOfWork
	users          repository.UserRepository
	transactions   repository.TransactionRepository
	initialBalance decimal.Decimal
	now            func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(uow repository.UnitOfWork, users repository.UserRepository, transactions repository.TransactionRepository, initialBalance decimal.Decimal) *UserService {
	return &UserService{
		uow:            uow,
		users:          users,
		transactions:   transactions,
		initialBalance: initialBalance,
		now:            time.Now,
	}
}

// WithClock overrides the service clock.
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

// RegisterUserRequest carries the input for registering a user.
type RegisterUserRequest struct {
	Name  string
	Phone string
	Role  domain.Role
}

// Register creates a user and grants the seed wallet balance. The grant is
// written as a ledger entry so the invariant that balance equals the sum of
// entries holds from the first moment.
func (s *UserService) Register(ctx context.Context, req RegisterUserRequest) (*domain.User, error) {
	if req.Name == "" {
		return nil, ErrMissingName
	}
	if req.Phone == "" {
		return nil, ErrMissingPhone
	}
	if req.Role != domain.RolePassenger && req.Role != domain.RoleDriver {
		return nil, ErrInvalidRole
	}

	user := &domain.User{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Phone:     req.Phone,
		Role:      req.Role,
		Balance:   decimal.Zero,
		CreatedAt: s.now(),
	}

	err := s.uow.Within(ctx, func(tx repository.TxRepos) error {
		existing, err := tx.Users().GetByPhone(ctx, req.Phone)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if existing != nil {
			return ErrPhoneTaken
		}
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		w := newWalletLedger(tx, s.now)
		return w.credit(ctx, user.ID, s.initialBalance, domain.TxCredit, "", "Welcome balance grant")
	})
	if err != nil {
		return nil, err
	}

	user.Balance = s.initialBalance
	return user, nil
}

// GetWallet returns the user's current balance.
func (s *UserService) GetWallet(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.users.GetByID(ctx, userID)
}

// GetTransactions returns the user's ledger entries, newest first.
func (s *UserService) GetTransactions(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.transactions.GetByUser(ctx, userID)
}

// ListUsers returns all registered users.
func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.users.GetAll(ctx)
}
