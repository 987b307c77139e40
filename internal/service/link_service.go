package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"plata-bot/internal/models"
	"plata-bot/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// LinkStore persists channel-address-to-user associations.
type LinkStore interface {
	Create(ctx context.Context, link *models.IdentityLink) error
	GetByAddress(ctx context.Context, channel, address string) (*models.IdentityLink, error)
	GetByUserAndAddress(ctx context.Context, userID uuid.UUID, channel, address string) (*models.IdentityLink, error)
	VerifiedUserFor(ctx context.Context, channel, address string) (uuid.UUID, bool, error)
	MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Resolution is the outcome of looking up a channel address: which user it
// maps to, if any, and how far along the verification is.
type Resolution struct {
	Status models.LinkStatus
	UserID uuid.UUID
	Link   *models.IdentityLink
}

// LinkService drives the NOT_ASSOCIATED → PENDING → VERIFIED state machine
// for channel addresses. OTPs are issued here (and from the inbound webhook
// path for pending links); consumption happens only through VerifyLink,
// which is an authenticated client request.
type LinkService struct {
	links    LinkStore
	otp      *OTPService
	notifier Notifier
	composer MessageComposer
	channel  string
	logger   *zap.Logger
}

func NewLinkService(links LinkStore, otp *OTPService, notifier Notifier, composer MessageComposer, channel string, logger *zap.Logger) *LinkService {
	return &LinkService{
		links:    links,
		otp:      otp,
		notifier: notifier,
		composer: composer,
		channel:  channel,
		logger:   logger,
	}
}

// Resolve maps a channel address to its governing link.
func (s *LinkService) Resolve(ctx context.Context, address string) (*Resolution, error) {
	link, err := s.links.GetByAddress(ctx, s.channel, address)
	if errors.Is(err, pgx.ErrNoRows) {
		return &Resolution{Status: models.LinkStatusNotAssociated}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve address: %w", err)
	}

	return &Resolution{Status: link.Status, UserID: link.UserID, Link: link}, nil
}

// RequestLink creates (or refreshes) a PENDING link between the user and the
// address, then issues an OTP and dispatches it to the address out-of-band.
func (s *LinkService) RequestLink(ctx context.Context, userID uuid.UUID, address string) (*models.IdentityLink, error) {
	if _, taken, err := s.links.VerifiedUserFor(ctx, s.channel, address); err != nil {
		return nil, fmt.Errorf("check verified link: %w", err)
	} else if taken {
		return nil, ErrAddressAlreadyLinked
	}

	now := time.Now()
	link, err := s.links.GetByUserAndAddress(ctx, userID, s.channel, address)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		link = &models.IdentityLink{
			ID:        uuid.New(),
			UserID:    userID,
			Channel:   s.channel,
			Address:   address,
			Status:    models.LinkStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.links.Create(ctx, link); err != nil {
			return nil, fmt.Errorf("create link: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("load link: %w", err)
	default:
		if err := s.links.Touch(ctx, link.ID, now); err != nil {
			return nil, fmt.Errorf("refresh link: %w", err)
		}
	}

	if err := s.sendOTP(ctx, link); err != nil {
		return nil, err
	}

	s.logger.Info("link requested",
		zap.String("user_id", userID.String()),
		zap.String("channel", s.channel),
	)
	return link, nil
}

// ReissueOTP sends a fresh code for an already-pending link. The inbound
// webhook path calls this when an unverified address writes in.
func (s *LinkService) ReissueOTP(ctx context.Context, link *models.IdentityLink) error {
	if link.Status != models.LinkStatusPending {
		return ErrLinkNotPending
	}
	return s.sendOTP(ctx, link)
}

// VerifyLink consumes the pending OTP and flips the link to VERIFIED. Only
// one verified link may exist per address; a second verification fails
// without touching the first link.
func (s *LinkService) VerifyLink(ctx context.Context, userID uuid.UUID, address, code string) error {
	if holder, taken, err := s.links.VerifiedUserFor(ctx, s.channel, address); err != nil {
		return fmt.Errorf("check verified link: %w", err)
	} else if taken {
		s.logger.Warn("verification against an already-linked address",
			zap.String("holder", holder.String()),
			zap.String("claimant", userID.String()),
		)
		return ErrAddressAlreadyLinked
	}

	link, err := s.links.GetByUserAndAddress(ctx, userID, s.channel, address)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrLinkNotFound
	}
	if err != nil {
		return fmt.Errorf("load link: %w", err)
	}
	if link.Status != models.LinkStatusPending {
		return ErrLinkNotPending
	}

	if err := s.otp.Verify(ctx, userID, s.channel, address, code); err != nil {
		return err
	}

	if err := s.links.MarkVerified(ctx, link.ID, time.Now()); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrAddressAlreadyLinked
		}
		return fmt.Errorf("mark verified: %w", err)
	}

	s.logger.Info("link verified",
		zap.String("user_id", userID.String()),
		zap.String("channel", s.channel),
	)
	return nil
}

func (s *LinkService) sendOTP(ctx context.Context, link *models.IdentityLink) error {
	code, err := s.otp.Issue(ctx, link.UserID, link.Channel, link.Address)
	if err != nil {
		return err
	}

	// Delivery is best-effort; a lost code is recovered by writing in again.
	go func(address, text string) {
		sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.Send(sendCtx, address, text); err != nil {
			s.logger.Warn("otp delivery failed", zap.String("address", address), zap.Error(err))
		}
	}(link.Address, s.composer.OTPCode(code))

	return nil
}
