package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MovementType string

const (
	MovementTypeIncome      MovementType = "INCOME"
	MovementTypeExpense     MovementType = "EXPENSE"
	MovementTypeTransferOut MovementType = "TRANSFER_OUT"
	MovementTypeTransferIn  MovementType = "TRANSFER_IN"
	MovementTypeAdjustment  MovementType = "ADJUSTMENT"
)

type MovementOrigin string

const (
	MovementOriginOpening  MovementOrigin = "OPENING"
	MovementOriginManual   MovementOrigin = "MANUAL"
	MovementOriginImported MovementOrigin = "IMPORTED"
)

// Movement is a single ledger entry against one account. Amount is always a
// positive magnitude; the sign of the balance change is implied by Type.
// ExternalEventID, when set, is unique per user and deduplicates at-least-once
// deliveries from the messaging channel.
type Movement struct {
	ID              uuid.UUID       `db:"id"`
	UserID          uuid.UUID       `db:"user_id"`
	AccountID       int64           `db:"account_id"`
	Type            MovementType    `db:"type"`
	CategoryID      *int64          `db:"category_id"`
	SubcategoryID   *int64          `db:"subcategory_id"`
	Amount          decimal.Decimal `db:"amount"`
	Date            time.Time       `db:"date"`
	Memo            string          `db:"memo"`
	Origin          MovementOrigin  `db:"origin"`
	ExternalEventID *string         `db:"external_event_id"`
	TransferID      *uuid.UUID      `db:"transfer_id"`
	CreatedAt       time.Time       `db:"created_at"`
}

// BalanceDelta returns the signed effect of the movement on its account
// balance: positive for credits, negative for debits.
func (m *Movement) BalanceDelta() decimal.Decimal {
	switch m.Type {
	case MovementTypeExpense, MovementTypeTransferOut:
		return m.Amount.Neg()
	default:
		return m.Amount
	}
}
