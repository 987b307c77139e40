package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"plata-bot/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccountStore resolves accounts for validation.
type AccountStore interface {
	GetByID(ctx context.Context, userID uuid.UUID, id int64) (*models.Account, error)
}

// CategoryStore resolves categories and subcategories for validation.
type CategoryStore interface {
	GetByID(ctx context.Context, userID uuid.UUID, id int64) (*models.Category, error)
	GetSubcategory(ctx context.Context, id int64) (*models.Subcategory, error)
}

// LedgerStore applies validated movements atomically: the movement rows and
// the balance updates land together or not at all. CreateMovement reports
// duplicate=true when the movement's external event id was already recorded.
type LedgerStore interface {
	CreateMovement(ctx context.Context, m *models.Movement) (*models.Movement, decimal.Decimal, bool, error)
	CreateTransfer(ctx context.Context, out, in *models.Movement) (decimal.Decimal, decimal.Decimal, error)
}

type PostMovementInput struct {
	UserID          uuid.UUID
	Type            models.MovementType
	AccountID       int64
	CategoryID      int64
	SubcategoryID   *int64
	Amount          decimal.Decimal
	Memo            string
	Date            time.Time
	Origin          models.MovementOrigin
	ExternalEventID string
}

type PostTransferInput struct {
	UserID          uuid.UUID
	SourceAccountID int64
	DestAccountID   int64
	Amount          decimal.Decimal
	Memo            string
	Date            time.Time
	Origin          models.MovementOrigin
}

type MovementResult struct {
	Movement         *models.Movement
	Balance          decimal.Decimal
	AlreadyProcessed bool
}

type TransferResult struct {
	TransferID    uuid.UUID
	Out           *models.Movement
	In            *models.Movement
	SourceBalance decimal.Decimal
	DestBalance   decimal.Decimal
}

// LedgerService validates and posts movements and transfers. It is a
// single-shot engine: each call is one atomic unit against the store, and
// retrying a movement that carries an external event id is always safe.
type LedgerService struct {
	accounts   AccountStore
	categories CategoryStore
	ledger     LedgerStore
	logger     *zap.Logger
}

func NewLedgerService(accounts AccountStore, categories CategoryStore, ledger LedgerStore, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		accounts:   accounts,
		categories: categories,
		ledger:     ledger,
		logger:     logger,
	}
}

// PostMovement validates and persists a single income or expense movement,
// applying its effect to the account balance in the same atomic unit. When
// the input carries an external event id already seen for this user, the
// previously committed movement is returned with AlreadyProcessed set and no
// state changes.
func (s *LedgerService) PostMovement(ctx context.Context, in PostMovementInput) (*MovementResult, error) {
	if in.Type != models.MovementTypeIncome && in.Type != models.MovementTypeExpense {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, in.Type)
	}

	amount, err := normalizeAmount(in.Amount)
	if err != nil {
		return nil, err
	}

	account, err := s.getActiveAccount(ctx, in.UserID, in.AccountID)
	if err != nil {
		return nil, err
	}

	category, err := s.categories.GetByID(ctx, in.UserID, in.CategoryID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}
	if !directionMatches(in.Type, category.Direction) {
		return nil, ErrCategoryDirection
	}

	if in.SubcategoryID != nil {
		sub, err := s.categories.GetSubcategory(ctx, *in.SubcategoryID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubcategoryNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("load subcategory: %w", err)
		}
		if sub.CategoryID != category.ID {
			return nil, ErrSubcategoryMismatch
		}
	}

	movement := &models.Movement{
		ID:            uuid.New(),
		UserID:        in.UserID,
		AccountID:     account.ID,
		Type:          in.Type,
		CategoryID:    &category.ID,
		SubcategoryID: in.SubcategoryID,
		Amount:        amount,
		Date:          movementDate(in.Date),
		Memo:          in.Memo,
		Origin:        movementOrigin(in.Origin),
		CreatedAt:     time.Now(),
	}
	if in.ExternalEventID != "" {
		eventID := in.ExternalEventID
		movement.ExternalEventID = &eventID
	}

	persisted, balance, duplicate, err := s.ledger.CreateMovement(ctx, movement)
	if err != nil {
		return nil, fmt.Errorf("post movement: %w", err)
	}

	if duplicate {
		s.logger.Info("movement already processed",
			zap.String("user_id", in.UserID.String()),
			zap.String("external_event_id", in.ExternalEventID),
		)
	} else {
		s.logger.Info("movement posted",
			zap.String("movement_id", persisted.ID.String()),
			zap.String("type", string(persisted.Type)),
			zap.String("amount", amount.StringFixed(2)),
		)
	}

	return &MovementResult{Movement: persisted, Balance: balance, AlreadyProcessed: duplicate}, nil
}

// PostTransfer validates and persists a transfer as a debit/credit movement
// pair sharing one transfer id and timestamp. All four writes (two movements,
// two balances) are one atomic unit.
func (s *LedgerService) PostTransfer(ctx context.Context, in PostTransferInput) (*TransferResult, error) {
	if in.SourceAccountID == in.DestAccountID {
		return nil, ErrSameAccount
	}

	amount, err := normalizeAmount(in.Amount)
	if err != nil {
		return nil, err
	}

	source, err := s.getActiveAccount(ctx, in.UserID, in.SourceAccountID)
	if err != nil {
		return nil, err
	}
	dest, err := s.getActiveAccount(ctx, in.UserID, in.DestAccountID)
	if err != nil {
		return nil, err
	}
	if source.Currency != dest.Currency {
		return nil, ErrCurrencyMismatch
	}

	transferID := uuid.New()
	date := movementDate(in.Date)
	now := time.Now()
	origin := movementOrigin(in.Origin)

	out := &models.Movement{
		ID:         uuid.New(),
		UserID:     in.UserID,
		AccountID:  source.ID,
		Type:       models.MovementTypeTransferOut,
		Amount:     amount,
		Date:       date,
		Memo:       in.Memo,
		Origin:     origin,
		TransferID: &transferID,
		CreatedAt:  now,
	}
	inLeg := &models.Movement{
		ID:         uuid.New(),
		UserID:     in.UserID,
		AccountID:  dest.ID,
		Type:       models.MovementTypeTransferIn,
		Amount:     amount,
		Date:       date,
		Memo:       in.Memo,
		Origin:     origin,
		TransferID: &transferID,
		CreatedAt:  now,
	}

	srcBalance, dstBalance, err := s.ledger.CreateTransfer(ctx, out, inLeg)
	if err != nil {
		return nil, fmt.Errorf("post transfer: %w", err)
	}

	s.logger.Info("transfer posted",
		zap.String("transfer_id", transferID.String()),
		zap.Int64("source_account", source.ID),
		zap.Int64("dest_account", dest.ID),
		zap.String("amount", amount.StringFixed(2)),
	)

	return &TransferResult{
		TransferID:    transferID,
		Out:           out,
		In:            inLeg,
		SourceBalance: srcBalance,
		DestBalance:   dstBalance,
	}, nil
}

// PostOpening records the opening movement that sets a fresh account's
// initial balance.
func (s *LedgerService) PostOpening(ctx context.Context, account *models.Account, amount decimal.Decimal) (*MovementResult, error) {
	normalized, err := normalizeAmount(amount)
	if err != nil {
		return nil, err
	}

	movement := &models.Movement{
		ID:        uuid.New(),
		UserID:    account.UserID,
		AccountID: account.ID,
		Type:      models.MovementTypeAdjustment,
		Amount:    normalized,
		Date:      time.Now(),
		Memo:      "saldo inicial",
		Origin:    models.MovementOriginOpening,
		CreatedAt: time.Now(),
	}

	persisted, balance, _, err := s.ledger.CreateMovement(ctx, movement)
	if err != nil {
		return nil, fmt.Errorf("post opening movement: %w", err)
	}

	return &MovementResult{Movement: persisted, Balance: balance}, nil
}

func (s *LedgerService) getActiveAccount(ctx context.Context, userID uuid.UUID, id int64) (*models.Account, error) {
	account, err := s.accounts.GetByID(ctx, userID, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if !account.Active {
		return nil, ErrAccountInactive
	}
	return account, nil
}

// normalizeAmount enforces the magnitude rule: strictly positive, at most
// two decimal digits. The stored value is rounded half away from zero at the
// cent boundary, matching currency rounding.
func normalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	if amount.Exponent() < -2 && !amount.Equal(amount.Round(2)) {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount.Round(2), nil
}

func directionMatches(t models.MovementType, d models.CategoryDirection) bool {
	switch t {
	case models.MovementTypeIncome:
		return d == models.CategoryDirectionIncome
	case models.MovementTypeExpense:
		return d == models.CategoryDirectionExpense
	default:
		return false
	}
}

func movementDate(date time.Time) time.Time {
	if date.IsZero() {
		return time.Now()
	}
	return date
}

func movementOrigin(origin models.MovementOrigin) models.MovementOrigin {
	if origin == "" {
		return models.MovementOriginManual
	}
	return origin
}
