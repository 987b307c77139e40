package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"plata-bot/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccountAdminStore covers the account writes the client surface needs.
type AccountAdminStore interface {
	AccountStore
	Create(ctx context.Context, account *models.Account) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Account, error)
}

type CreateAccountInput struct {
	Name           string
	Currency       string
	Nature         models.AccountNature
	OpeningBalance decimal.Decimal
	CreditLimit    decimal.NullDecimal
}

// AccountService creates and lists accounts. An account is born with zero
// balance; a non-zero opening balance is applied through the ledger as an
// OPENING movement so the balance invariant holds from the first write.
type AccountService struct {
	accounts AccountAdminStore
	ledger   *LedgerService
	logger   *zap.Logger
}

func NewAccountService(accounts AccountAdminStore, ledger *LedgerService, logger *zap.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		ledger:   ledger,
		logger:   logger,
	}
}

func (s *AccountService) CreateAccount(ctx context.Context, userID uuid.UUID, in CreateAccountInput) (*models.Account, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("account name is required")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if len(currency) != 3 {
		return nil, fmt.Errorf("invalid currency code %q", in.Currency)
	}
	if in.Nature != models.AccountNatureAsset && in.Nature != models.AccountNatureLiability {
		return nil, fmt.Errorf("invalid account nature %q", in.Nature)
	}
	if in.OpeningBalance.IsNegative() {
		return nil, ErrInvalidAmount
	}

	now := time.Now()
	account := &models.Account{
		UserID:      userID,
		Name:        name,
		Currency:    currency,
		Balance:     decimal.Zero,
		Nature:      in.Nature,
		CreditLimit: in.CreditLimit,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	if in.OpeningBalance.IsPositive() {
		result, err := s.ledger.PostOpening(ctx, account, in.OpeningBalance)
		if err != nil {
			return nil, err
		}
		account.Balance = result.Balance
	}

	s.logger.Info("account created",
		zap.Int64("account_id", account.ID),
		zap.String("user_id", userID.String()),
		zap.String("currency", currency),
	)
	return account, nil
}

func (s *AccountService) ListAccounts(ctx context.Context, userID uuid.UUID) ([]*models.Account, error) {
	accounts, err := s.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}
