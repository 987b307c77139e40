package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountNature string

const (
	AccountNatureAsset     AccountNature = "asset"
	AccountNatureLiability AccountNature = "liability"
)

// Account balances are only ever written inside a ledger transaction,
// together with the movement that explains the change.
type Account struct {
	ID          int64               `db:"id"`
	UserID      uuid.UUID           `db:"user_id"`
	Name        string              `db:"name"`
	Currency    string              `db:"currency"`
	Balance     decimal.Decimal     `db:"balance"`
	Nature      AccountNature       `db:"nature"`
	CreditLimit decimal.NullDecimal `db:"credit_limit"`
	Active      bool                `db:"active"`
	CreatedAt   time.Time           `db:"created_at"`
	UpdatedAt   time.Time           `db:"updated_at"`
}
