package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TxCommitmentFee TransactionType = "COMMITMENT_FEE"
	TxDebit         TransactionType = "DEBIT"
	TxCredit        TransactionType = "CREDIT"
	TxRefund        TransactionType = "REFUND"
	TxCommission    TransactionType = "COMMISSION"
)

// Transaction is an immutable ledger entry. Amount is always non-negative;
// the direction of the money movement is implied by Type. COMMISSION entries
// carry no UserID: they record the platform's take.
type Transaction struct {
	ID          string
	Type        TransactionType
	Amount      decimal.Decimal
	Description string
	RideID      string // empty for entries not tied to a ride (seed grants)
	UserID      string // empty for platform-side entries
	Timestamp   time.Time
}

// Signed returns the entry's effect on the referenced wallet: negative for
// outflows (COMMITMENT_FEE, DEBIT), positive for inflows (CREDIT, REFUND).
// COMMISSION entries are platform inflows and count positive.
func (t *Transaction) Signed() decimal.Decimal {
	switch t.Type {
	case TxCommitmentFee, TxDebit:
		return t.Amount.Neg()
	default:
		return t.Amount
	}
}
