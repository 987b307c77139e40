package repository

import (
	"context"
	"time"

	"plata-bot/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var otpColumns = []string{
	"id", "user_id", "channel", "address", "code_hash",
	"expires_at", "used_at", "attempts", "max_attempts", "created_at",
}

type OTPRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewOTPRepository(db *pgxpool.Pool, logger *zap.Logger) *OTPRepository {
	return &OTPRepository{
		db:     db,
		logger: logger,
	}
}

func (r *OTPRepository) Create(ctx context.Context, otp *models.OTPRecord) error {
	query := squirrel.Insert("otp_codes").
		Columns(otpColumns...).
		Values(otp.ID, otp.UserID, otp.Channel, otp.Address, otp.CodeHash,
			otp.ExpiresAt, otp.UsedAt, otp.Attempts, otp.MaxAttempts, otp.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// GetLatestActive returns the newest unconsumed code for the tuple. Expired
// or exhausted records are still returned; the verifier decides how to fail.
func (r *OTPRepository) GetLatestActive(ctx context.Context, userID uuid.UUID, channel, address string) (*models.OTPRecord, error) {
	query := squirrel.Select(otpColumns...).
		From("otp_codes").
		Where(squirrel.Eq{"user_id": userID, "channel": channel, "address": address}).
		Where("used_at IS NULL").
		OrderBy("created_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var otp models.OTPRecord
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&otp.ID, &otp.UserID, &otp.Channel, &otp.Address, &otp.CodeHash,
		&otp.ExpiresAt, &otp.UsedAt, &otp.Attempts, &otp.MaxAttempts, &otp.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &otp, nil
}

func (r *OTPRepository) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	query := squirrel.Update("otp_codes").
		Set("attempts", squirrel.Expr("attempts + 1")).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *OTPRepository) MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := squirrel.Update("otp_codes").
		Set("used_at", at).
		Where(squirrel.Eq{"id": id}).
		Where("used_at IS NULL").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// DeletePending discards unconsumed codes for the tuple so a reissued code
// is the only one that can verify.
func (r *OTPRepository) DeletePending(ctx context.Context, userID uuid.UUID, channel, address string) error {
	query := squirrel.Delete("otp_codes").
		Where(squirrel.Eq{"user_id": userID, "channel": channel, "address": address}).
		Where("used_at IS NULL").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
