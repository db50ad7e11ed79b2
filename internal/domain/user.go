package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role distinguishes the two kinds of ride parties.
type Role string

const (
	RolePassenger Role = "passenger"
	RoleDriver    Role = "driver"
)

// User represents a passenger or driver in the system.
// Balance is mutated only through ledger entries; at any point it equals the
// sum of all ledger entries referencing this user.
type User struct {
	ID        string
	Name      string
	Phone     string
	Role      Role
	Balance   decimal.Decimal
	CreatedAt time.Time
}
