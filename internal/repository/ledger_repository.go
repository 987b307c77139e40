package repository

import (
	"context"
	"errors"
	"fmt"

	"plata-bot/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var movementColumns = []string{
	"id", "user_id", "account_id", "type", "category_id", "subcategory_id",
	"amount", "date", "memo", "origin", "external_event_id", "transfer_id", "created_at",
}

// LedgerRepository owns every write that touches movements and account
// balances. Both always change inside one transaction; a balance is never
// updated without the movement row that explains it.
type LedgerRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewLedgerRepository(db *pgxpool.Pool, logger *zap.Logger) *LedgerRepository {
	return &LedgerRepository{
		db:     db,
		logger: logger,
	}
}

// CreateMovement inserts the movement and applies its balance delta to the
// account in a single transaction. When the movement carries an external
// event id that was already recorded for this user, the insert hits the
// partial unique index, the transaction is rolled back and the previously
// committed movement is returned with duplicate=true. Relying on the index
// rather than a prior SELECT keeps concurrent redeliveries race-free: the
// database serializes the two inserts and exactly one wins.
func (r *LedgerRepository) CreateMovement(ctx context.Context, m *models.Movement) (*models.Movement, decimal.Decimal, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, decimal.Zero, false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = lockAccount(ctx, tx, m.UserID, m.AccountID); err != nil {
		return nil, decimal.Zero, false, err
	}

	if err = insertMovement(ctx, tx, m); err != nil {
		if isUniqueViolation(err) && m.ExternalEventID != nil {
			_ = tx.Rollback(ctx)
			existing, balance, dupErr := r.getProcessedEvent(ctx, m.UserID, *m.ExternalEventID)
			if dupErr != nil {
				return nil, decimal.Zero, false, dupErr
			}
			return existing, balance, true, nil
		}
		return nil, decimal.Zero, false, fmt.Errorf("insert movement: %w", err)
	}

	balance, err := applyBalanceDelta(ctx, tx, m.AccountID, m.BalanceDelta())
	if err != nil {
		return nil, decimal.Zero, false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, decimal.Zero, false, fmt.Errorf("commit: %w", err)
	}

	return m, balance, false, nil
}

// CreateTransfer persists both transfer legs and both balance updates as one
// transaction. Account rows are locked in ascending id order so two opposing
// transfers cannot deadlock.
func (r *LedgerRepository) CreateTransfer(ctx context.Context, out, in *models.Movement) (decimal.Decimal, decimal.Decimal, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	first, second := out.AccountID, in.AccountID
	if second < first {
		first, second = second, first
	}
	for _, id := range []int64{first, second} {
		if _, err = lockAccount(ctx, tx, out.UserID, id); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
	}

	for _, m := range []*models.Movement{out, in} {
		if err = insertMovement(ctx, tx, m); err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("insert transfer leg: %w", err)
		}
	}

	srcBalance, err := applyBalanceDelta(ctx, tx, out.AccountID, out.BalanceDelta())
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	dstBalance, err := applyBalanceDelta(ctx, tx, in.AccountID, in.BalanceDelta())
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	if err = tx.Commit(ctx); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("commit: %w", err)
	}

	return srcBalance, dstBalance, nil
}

// GetByExternalEventID returns the committed movement recorded for the
// (user, external event id) pair.
func (r *LedgerRepository) GetByExternalEventID(ctx context.Context, userID uuid.UUID, eventID string) (*models.Movement, error) {
	query := squirrel.Select(movementColumns...).
		From("movements").
		Where(squirrel.Eq{"user_id": userID, "external_event_id": eventID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var m models.Movement
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&m.ID, &m.UserID, &m.AccountID, &m.Type, &m.CategoryID, &m.SubcategoryID,
		&m.Amount, &m.Date, &m.Memo, &m.Origin, &m.ExternalEventID, &m.TransferID, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

func (r *LedgerRepository) getProcessedEvent(ctx context.Context, userID uuid.UUID, eventID string) (*models.Movement, decimal.Decimal, error) {
	existing, err := r.GetByExternalEventID(ctx, userID, eventID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("load processed event: %w", err)
	}

	var balance decimal.Decimal
	sql, args, err := squirrel.Select("balance").
		From("accounts").
		Where(squirrel.Eq{"id": existing.AccountID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, decimal.Zero, err
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&balance); err != nil {
		return nil, decimal.Zero, err
	}

	return existing, balance, nil
}

func lockAccount(ctx context.Context, tx pgx.Tx, userID uuid.UUID, accountID int64) (decimal.Decimal, error) {
	sql, args, err := squirrel.Select("balance").
		From("accounts").
		Where(squirrel.Eq{"id": accountID, "user_id": userID}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal
	if err := tx.QueryRow(ctx, sql, args...).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("lock account %d: %w", accountID, err)
	}
	return balance, nil
}

func insertMovement(ctx context.Context, tx pgx.Tx, m *models.Movement) error {
	sql, args, err := squirrel.Insert("movements").
		Columns(movementColumns...).
		Values(m.ID, m.UserID, m.AccountID, m.Type, m.CategoryID, m.SubcategoryID,
			m.Amount, m.Date, m.Memo, m.Origin, m.ExternalEventID, m.TransferID, m.CreatedAt).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, sql, args...)
	return err
}

func applyBalanceDelta(ctx context.Context, tx pgx.Tx, accountID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	sql, args, err := squirrel.Update("accounts").
		Set("balance", squirrel.Expr("balance + ?", delta)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": accountID}).
		Suffix("RETURNING balance").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal
	if err := tx.QueryRow(ctx, sql, args...).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("update balance %d: %w", accountID, err)
	}
	return balance, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
