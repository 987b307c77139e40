package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"plata-bot/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// OTPStore persists one-time passcodes.
type OTPStore interface {
	Create(ctx context.Context, otp *models.OTPRecord) error
	GetLatestActive(ctx context.Context, userID uuid.UUID, channel, address string) (*models.OTPRecord, error)
	IncrementAttempts(ctx context.Context, id uuid.UUID) error
	MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	DeletePending(ctx context.Context, userID uuid.UUID, channel, address string) error
}

// CodeHasher hashes codes at rest and checks submissions against the stored
// hash. Production uses bcrypt; tests inject a cheap fake.
type CodeHasher interface {
	Hash(code string) (string, error)
	Compare(hash, code string) bool
}

// OTPService issues and verifies short numeric codes bound to a
// (user, channel, address) tuple, with expiry and an attempt ceiling.
type OTPService struct {
	store       OTPStore
	hasher      CodeHasher
	ttl         time.Duration
	maxAttempts int
	logger      *zap.Logger
}

func NewOTPService(store OTPStore, hasher CodeHasher, ttl time.Duration, maxAttempts int, logger *zap.Logger) *OTPService {
	return &OTPService{
		store:       store,
		hasher:      hasher,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Issue invalidates any pending code for the tuple and stores a fresh one.
// The plaintext code is returned exactly once, for the out-of-band send.
func (s *OTPService) Issue(ctx context.Context, userID uuid.UUID, channel, address string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	hash, err := s.hasher.Hash(code)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}

	if err := s.store.DeletePending(ctx, userID, channel, address); err != nil {
		return "", fmt.Errorf("discard pending codes: %w", err)
	}

	now := time.Now()
	otp := &models.OTPRecord{
		ID:          uuid.New(),
		UserID:      userID,
		Channel:     channel,
		Address:     address,
		CodeHash:    hash,
		ExpiresAt:   now.Add(s.ttl),
		Attempts:    0,
		MaxAttempts: s.maxAttempts,
		CreatedAt:   now,
	}
	if err := s.store.Create(ctx, otp); err != nil {
		return "", fmt.Errorf("store code: %w", err)
	}

	s.logger.Info("otp issued",
		zap.String("user_id", userID.String()),
		zap.String("channel", channel),
	)
	return code, nil
}

// Verify checks a submitted code against the latest unconsumed record for the
// tuple. It fails closed on expiry and exhaustion without touching the
// attempt counter; only a wrong code increments it. A correct code consumes
// the record terminally.
func (s *OTPService) Verify(ctx context.Context, userID uuid.UUID, channel, address, code string) error {
	otp, err := s.store.GetLatestActive(ctx, userID, channel, address)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOTPNotFound
	}
	if err != nil {
		return fmt.Errorf("load code: %w", err)
	}

	now := time.Now()
	if otp.Expired(now) {
		return ErrOTPExpired
	}
	if otp.Exhausted() {
		return ErrOTPExhausted
	}

	if !s.hasher.Compare(otp.CodeHash, code) {
		if err := s.store.IncrementAttempts(ctx, otp.ID); err != nil {
			return fmt.Errorf("record failed attempt: %w", err)
		}
		return ErrOTPInvalid
	}

	if err := s.store.MarkUsed(ctx, otp.ID, now); err != nil {
		return fmt.Errorf("consume code: %w", err)
	}

	s.logger.Info("otp verified", zap.String("user_id", userID.String()))
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
