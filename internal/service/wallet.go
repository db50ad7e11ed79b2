package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"prebook/internal/domain"
	"prebook/internal/repository"
)

// walletLedger couples every balance change with its ledger entry inside one
// transaction. All money movement in the system goes through these two
// methods; nothing else touches balances.
type walletLedger struct {
	users   repository.UserRepository
	entries repository.TransactionRepository
	now     func() time.Time
}

func newWalletLedger(tx repository.TxRepos, now func() time.Time) *walletLedger {
	return &walletLedger{users: tx.Users(), entries: tx.Transactions(), now: now}
}

// debit removes amount from the user's wallet and appends the matching ledger
// entry. Amounts are rounded to the ledger minimum unit; zero movements are
// skipped.
func (w *walletLedger) debit(ctx context.Context, userID string, amount decimal.Decimal, txType domain.TransactionType, rideID, description string) error {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil
	}
	if err := w.users.Debit(ctx, userID, amount); err != nil {
		return err
	}
	return w.entries.Create(ctx, &domain.Transaction{
		ID:          uuid.New().String(),
		Type:        txType,
		Amount:      amount,
		Description: description,
		RideID:      rideID,
		UserID:      userID,
		Timestamp:   w.now(),
	})
}

// credit adds amount to the user's wallet and appends the matching ledger
// entry.
func (w *walletLedger) credit(ctx context.Context, userID string, amount decimal.Decimal, txType domain.TransactionType, rideID, description string) error {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil
	}
	if err := w.users.Credit(ctx, userID, amount); err != nil {
		return err
	}
	return w.entries.Create(ctx, &domain.Transaction{
		ID:          uuid.New().String(),
		Type:        txType,
		Amount:      amount,
		Description: description,
		RideID:      rideID,
		UserID:      userID,
		Timestamp:   w.now(),
	})
}

// platformEntry appends a platform-side ledger entry (no wallet involved).
func (w *walletLedger) platformEntry(ctx context.Context, amount decimal.Decimal, rideID, description string) error {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil
	}
	return w.entries.Create(ctx, &domain.Transaction{
		ID:          uuid.New().String(),
		Type:        domain.TxCommission,
		Amount:      amount,
		Description: description,
		RideID:      rideID,
		Timestamp:   w.now(),
	})
}
