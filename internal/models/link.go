package models

import (
	"time"

	"github.com/google/uuid"
)

type LinkStatus string

const (
	LinkStatusNotAssociated LinkStatus = "NOT_ASSOCIATED"
	LinkStatusPending       LinkStatus = "PENDING"
	LinkStatusVerified      LinkStatus = "VERIFIED"
)

// IdentityLink associates a messaging channel address with a user. At most
// one VERIFIED link may exist per (channel, address) system-wide; the partial
// unique index in the schema backstops the service-level check.
type IdentityLink struct {
	ID         uuid.UUID  `db:"id"`
	UserID     uuid.UUID  `db:"user_id"`
	Channel    string     `db:"channel"`
	Address    string     `db:"address"`
	Status     LinkStatus `db:"status"`
	VerifiedAt *time.Time `db:"verified_at"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}
