package repository

import (
	"context"

	"plata-bot/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var accountColumns = []string{
	"id", "user_id", "name", "currency", "balance", "nature",
	"credit_limit", "active", "created_at", "updated_at",
}

type AccountRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAccountRepository(db *pgxpool.Pool, logger *zap.Logger) *AccountRepository {
	return &AccountRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the account and fills in its generated id. The opening
// movement, if any, is posted separately through the ledger.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := squirrel.Insert("accounts").
		Columns("user_id", "name", "currency", "balance", "nature", "credit_limit", "active", "created_at", "updated_at").
		Values(account.UserID, account.Name, account.Currency, account.Balance, account.Nature,
			account.CreditLimit, account.Active, account.CreatedAt, account.UpdatedAt).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	return r.db.QueryRow(ctx, sql, args...).Scan(&account.ID)
}

func (r *AccountRepository) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*models.Account, error) {
	query := squirrel.Select(accountColumns...).
		From("accounts").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var account models.Account
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&account.ID, &account.UserID, &account.Name, &account.Currency, &account.Balance,
		&account.Nature, &account.CreditLimit, &account.Active, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &account, nil
}

func (r *AccountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Account, error) {
	query := squirrel.Select(accountColumns...).
		From("accounts").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var account models.Account
		if err := rows.Scan(
			&account.ID, &account.UserID, &account.Name, &account.Currency, &account.Balance,
			&account.Nature, &account.CreditLimit, &account.Active, &account.CreatedAt, &account.UpdatedAt,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, &account)
	}

	return accounts, rows.Err()
}
