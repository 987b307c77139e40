package models

import (
	"time"

	"github.com/google/uuid"
)

// OTPRecord is a one-time passcode bound to (user, channel, address). The
// code itself is stored bcrypt-hashed. A record is terminal once UsedAt is
// set or Attempts reaches MaxAttempts.
type OTPRecord struct {
	ID          uuid.UUID  `db:"id"`
	UserID      uuid.UUID  `db:"user_id"`
	Channel     string     `db:"channel"`
	Address     string     `db:"address"`
	CodeHash    string     `db:"code_hash"`
	ExpiresAt   time.Time  `db:"expires_at"`
	UsedAt      *time.Time `db:"used_at"`
	Attempts    int        `db:"attempts"`
	MaxAttempts int        `db:"max_attempts"`
	CreatedAt   time.Time  `db:"created_at"`
}

func (o *OTPRecord) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

func (o *OTPRecord) Exhausted() bool {
	return o.Attempts >= o.MaxAttempts
}
