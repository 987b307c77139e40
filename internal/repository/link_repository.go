package repository

import (
	"context"
	"errors"
	"time"

	"plata-bot/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ErrConflict is returned when a write loses against a uniqueness constraint,
// e.g. verifying a link for an address that is already verified elsewhere.
var ErrConflict = errors.New("conflict with existing record")

var linkColumns = []string{
	"id", "user_id", "channel", "address", "status", "verified_at", "created_at", "updated_at",
}

type LinkRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewLinkRepository(db *pgxpool.Pool, logger *zap.Logger) *LinkRepository {
	return &LinkRepository{
		db:     db,
		logger: logger,
	}
}

func (r *LinkRepository) Create(ctx context.Context, link *models.IdentityLink) error {
	query := squirrel.Insert("identity_links").
		Columns(linkColumns...).
		Values(link.ID, link.UserID, link.Channel, link.Address, link.Status,
			link.VerifiedAt, link.CreatedAt, link.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// GetByAddress returns the link that currently governs an address on a
// channel: the verified one if any, otherwise the most recently touched.
func (r *LinkRepository) GetByAddress(ctx context.Context, channel, address string) (*models.IdentityLink, error) {
	query := squirrel.Select(linkColumns...).
		From("identity_links").
		Where(squirrel.Eq{"channel": channel, "address": address}).
		OrderBy("(status = 'VERIFIED') DESC", "updated_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	return r.queryOne(ctx, query)
}

func (r *LinkRepository) GetByUserAndAddress(ctx context.Context, userID uuid.UUID, channel, address string) (*models.IdentityLink, error) {
	query := squirrel.Select(linkColumns...).
		From("identity_links").
		Where(squirrel.Eq{"user_id": userID, "channel": channel, "address": address}).
		OrderBy("updated_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	return r.queryOne(ctx, query)
}

// VerifiedUserFor reports which user, if any, holds the verified link for the
// address. Callers use it to fail fast before attempting a second verification.
func (r *LinkRepository) VerifiedUserFor(ctx context.Context, channel, address string) (uuid.UUID, bool, error) {
	query := squirrel.Select("user_id").
		From("identity_links").
		Where(squirrel.Eq{"channel": channel, "address": address, "status": models.LinkStatusVerified}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return uuid.Nil, false, err
	}

	var userID uuid.UUID
	err = r.db.QueryRow(ctx, sql, args...).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return userID, true, nil
}

// MarkVerified flips a pending link to VERIFIED. The partial unique index on
// (channel, address) WHERE status = 'VERIFIED' rejects a second verified link
// for the same address; that case surfaces as ErrConflict.
func (r *LinkRepository) MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := squirrel.Update("identity_links").
		Set("status", models.LinkStatusVerified).
		Set("verified_at", at).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id, "status": models.LinkStatusPending}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *LinkRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := squirrel.Update("identity_links").
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *LinkRepository) queryOne(ctx context.Context, query squirrel.SelectBuilder) (*models.IdentityLink, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var link models.IdentityLink
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&link.ID, &link.UserID, &link.Channel, &link.Address, &link.Status,
		&link.VerifiedAt, &link.CreatedAt, &link.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &link, nil
}
