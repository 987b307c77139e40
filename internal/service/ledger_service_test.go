package service

import (
	"context"
	"testing"

	"plata-bot/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAccountStore struct {
	accounts map[int64]*models.Account
}

func (s *fakeAccountStore) GetByID(_ context.Context, userID uuid.UUID, id int64) (*models.Account, error) {
	account, ok := s.accounts[id]
	if !ok || account.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	cp := *account
	return &cp, nil
}

type fakeCategoryStore struct {
	categories    map[int64]*models.Category
	subcategories map[int64]*models.Subcategory
}

func (s *fakeCategoryStore) GetByID(_ context.Context, userID uuid.UUID, id int64) (*models.Category, error) {
	category, ok := s.categories[id]
	if !ok || category.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	return category, nil
}

func (s *fakeCategoryStore) GetSubcategory(_ context.Context, id int64) (*models.Subcategory, error) {
	sub, ok := s.subcategories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return sub, nil
}

// fakeLedgerStore mimics the repository contract: movement plus balance as
// one unit, duplicates detected by external event id.
type fakeLedgerStore struct {
	balances     map[int64]decimal.Decimal
	movements    []*models.Movement
	seenEvents   map[string]*models.Movement
	transferFail error
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{
		balances:   make(map[int64]decimal.Decimal),
		seenEvents: make(map[string]*models.Movement),
	}
}

func (s *fakeLedgerStore) CreateMovement(_ context.Context, m *models.Movement) (*models.Movement, decimal.Decimal, bool, error) {
	if m.ExternalEventID != nil {
		if prev, ok := s.seenEvents[*m.ExternalEventID]; ok {
			return prev, s.balances[prev.AccountID], true, nil
		}
	}
	s.balances[m.AccountID] = s.balances[m.AccountID].Add(m.BalanceDelta())
	s.movements = append(s.movements, m)
	if m.ExternalEventID != nil {
		s.seenEvents[*m.ExternalEventID] = m
	}
	return m, s.balances[m.AccountID], false, nil
}

func (s *fakeLedgerStore) CreateTransfer(_ context.Context, out, in *models.Movement) (decimal.Decimal, decimal.Decimal, error) {
	if s.transferFail != nil {
		return decimal.Zero, decimal.Zero, s.transferFail
	}
	s.balances[out.AccountID] = s.balances[out.AccountID].Add(out.BalanceDelta())
	s.balances[in.AccountID] = s.balances[in.AccountID].Add(in.BalanceDelta())
	s.movements = append(s.movements, out, in)
	return s.balances[out.AccountID], s.balances[in.AccountID], nil
}

type ledgerFixture struct {
	svc    *LedgerService
	store  *fakeLedgerStore
	userID uuid.UUID
}

func newLedgerFixture() *ledgerFixture {
	userID := uuid.New()
	accounts := &fakeAccountStore{accounts: map[int64]*models.Account{
		1: {ID: 1, UserID: userID, Currency: "ARS", Nature: models.AccountNatureAsset, Active: true},
		2: {ID: 2, UserID: userID, Currency: "ARS", Nature: models.AccountNatureAsset, Active: true},
		3: {ID: 3, UserID: userID, Currency: "USD", Nature: models.AccountNatureAsset, Active: true},
		4: {ID: 4, UserID: userID, Currency: "ARS", Nature: models.AccountNatureAsset, Active: false},
	}}
	categories := &fakeCategoryStore{
		categories: map[int64]*models.Category{
			5:  {ID: 5, UserID: userID, Direction: models.CategoryDirectionExpense},
			10: {ID: 10, UserID: userID, Direction: models.CategoryDirectionIncome},
		},
		subcategories: map[int64]*models.Subcategory{
			51: {ID: 51, CategoryID: 5},
			52: {ID: 52, CategoryID: 10},
		},
	}
	store := newFakeLedgerStore()
	return &ledgerFixture{
		svc:    NewLedgerService(accounts, categories, store, zap.NewNop()),
		store:  store,
		userID: userID,
	}
}

func TestPostMovementAppliesBalance(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	income, err := f.svc.PostMovement(ctx, PostMovementInput{
		UserID: f.userID, Type: models.MovementTypeIncome,
		AccountID: 1, CategoryID: 10,
		Amount: decimal.RequireFromString("100"), Memo: "salary",
	})
	require.NoError(t, err)
	assert.False(t, income.AlreadyProcessed)
	assert.Equal(t, "100.00", income.Balance.StringFixed(2))

	expense, err := f.svc.PostMovement(ctx, PostMovementInput{
		UserID: f.userID, Type: models.MovementTypeExpense,
		AccountID: 1, CategoryID: 5,
		Amount: decimal.RequireFromString("25.50"), Memo: "taxi",
	})
	require.NoError(t, err)
	assert.Equal(t, "74.50", expense.Balance.StringFixed(2))

	require.Len(t, f.store.movements, 2)
	assert.Equal(t, models.MovementOriginManual, f.store.movements[0].Origin)
}

func TestPostMovementValidation(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	base := PostMovementInput{
		UserID: f.userID, Type: models.MovementTypeExpense,
		AccountID: 1, CategoryID: 5,
		Amount: decimal.RequireFromString("10"), Memo: "x",
	}

	tests := []struct {
		name    string
		mutate  func(in *PostMovementInput)
		wantErr error
	}{
		{"zero amount", func(in *PostMovementInput) { in.Amount = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(in *PostMovementInput) { in.Amount = decimal.RequireFromString("-5") }, ErrInvalidAmount},
		{"sub-cent amount", func(in *PostMovementInput) { in.Amount = decimal.RequireFromString("10.005") }, ErrInvalidAmount},
		{"unknown account", func(in *PostMovementInput) { in.AccountID = 99 }, ErrAccountNotFound},
		{"foreign account", func(in *PostMovementInput) { in.UserID = uuid.New() }, ErrAccountNotFound},
		{"inactive account", func(in *PostMovementInput) { in.AccountID = 4 }, ErrAccountInactive},
		{"unknown category", func(in *PostMovementInput) { in.CategoryID = 99 }, ErrCategoryNotFound},
		{"direction mismatch", func(in *PostMovementInput) { in.CategoryID = 10 }, ErrCategoryDirection},
		{"unknown subcategory", func(in *PostMovementInput) { id := int64(99); in.SubcategoryID = &id }, ErrSubcategoryNotFound},
		{"subcategory of other category", func(in *PostMovementInput) { id := int64(52); in.SubcategoryID = &id }, ErrSubcategoryMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := f.svc.PostMovement(ctx, in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Empty(t, f.store.movements, "rejections must not write")
}

func TestPostMovementAcceptsSubcategory(t *testing.T) {
	f := newLedgerFixture()
	subID := int64(51)

	result, err := f.svc.PostMovement(context.Background(), PostMovementInput{
		UserID: f.userID, Type: models.MovementTypeExpense,
		AccountID: 1, CategoryID: 5, SubcategoryID: &subID,
		Amount: decimal.RequireFromString("10"), Memo: "super",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Movement.SubcategoryID)
	assert.Equal(t, subID, *result.Movement.SubcategoryID)
}

// Posting the same external event twice changes the balance exactly once and
// surfaces the original movement on the replay.
func TestPostMovementIdempotency(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	in := PostMovementInput{
		UserID: f.userID, Type: models.MovementTypeExpense,
		AccountID: 1, CategoryID: 5,
		Amount: decimal.RequireFromString("25.50"), Memo: "taxi",
		Origin: models.MovementOriginImported, ExternalEventID: "wamid.123",
	}

	first, err := f.svc.PostMovement(ctx, in)
	require.NoError(t, err)
	require.False(t, first.AlreadyProcessed)

	second, err := f.svc.PostMovement(ctx, in)
	require.NoError(t, err)
	assert.True(t, second.AlreadyProcessed)
	assert.Equal(t, first.Movement.ID, second.Movement.ID)
	assert.True(t, second.Balance.Equal(first.Balance), "replay must not move the balance")
	assert.Len(t, f.store.movements, 1)
}

func TestPostTransfer(t *testing.T) {
	f := newLedgerFixture()

	result, err := f.svc.PostTransfer(context.Background(), PostTransferInput{
		UserID: f.userID, SourceAccountID: 1, DestAccountID: 2,
		Amount: decimal.RequireFromString("50"), Memo: "rent share",
	})
	require.NoError(t, err)

	assert.Equal(t, models.MovementTypeTransferOut, result.Out.Type)
	assert.Equal(t, models.MovementTypeTransferIn, result.In.Type)
	require.NotNil(t, result.Out.TransferID)
	require.NotNil(t, result.In.TransferID)
	assert.Equal(t, *result.Out.TransferID, *result.In.TransferID, "legs share one operation id")
	assert.Equal(t, result.Out.Date, result.In.Date, "legs share one timestamp")
	assert.Nil(t, result.Out.CategoryID, "transfer legs carry no category")

	assert.Equal(t, "-50.00", result.SourceBalance.StringFixed(2))
	assert.Equal(t, "50.00", result.DestBalance.StringFixed(2))
}

func TestPostTransferValidation(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	_, err := f.svc.PostTransfer(ctx, PostTransferInput{
		UserID: f.userID, SourceAccountID: 1, DestAccountID: 1,
		Amount: decimal.RequireFromString("50"), Memo: "self",
	})
	assert.ErrorIs(t, err, ErrSameAccount)

	_, err = f.svc.PostTransfer(ctx, PostTransferInput{
		UserID: f.userID, SourceAccountID: 1, DestAccountID: 3,
		Amount: decimal.RequireFromString("50"), Memo: "fx",
	})
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = f.svc.PostTransfer(ctx, PostTransferInput{
		UserID: f.userID, SourceAccountID: 1, DestAccountID: 2,
		Amount: decimal.RequireFromString("0"), Memo: "nothing",
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	assert.Empty(t, f.store.movements)
}

func TestPostTransferStoreFailureLeavesNothing(t *testing.T) {
	f := newLedgerFixture()
	f.store.transferFail = assert.AnError

	_, err := f.svc.PostTransfer(context.Background(), PostTransferInput{
		UserID: f.userID, SourceAccountID: 1, DestAccountID: 2,
		Amount: decimal.RequireFromString("50"), Memo: "rent",
	})
	require.Error(t, err)
	assert.Empty(t, f.store.movements)
	assert.True(t, f.store.balances[1].IsZero())
	assert.True(t, f.store.balances[2].IsZero())
}

func TestPostOpening(t *testing.T) {
	f := newLedgerFixture()
	account := &models.Account{ID: 1, UserID: f.userID, Currency: "ARS", Active: true}

	result, err := f.svc.PostOpening(context.Background(), account, decimal.RequireFromString("1000"))
	require.NoError(t, err)
	assert.Equal(t, models.MovementTypeAdjustment, result.Movement.Type)
	assert.Equal(t, models.MovementOriginOpening, result.Movement.Origin)
	assert.Equal(t, "1000.00", result.Balance.StringFixed(2))
}

func TestBalanceInvariantOverSequence(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	post := func(movementType models.MovementType, categoryID int64, amount string) {
		_, err := f.svc.PostMovement(ctx, PostMovementInput{
			UserID: f.userID, Type: movementType,
			AccountID: 1, CategoryID: categoryID,
			Amount: decimal.RequireFromString(amount), Memo: "m",
		})
		require.NoError(t, err)
	}

	post(models.MovementTypeIncome, 10, "100.10")
	post(models.MovementTypeExpense, 5, "0.01")
	post(models.MovementTypeIncome, 10, "99.91")
	post(models.MovementTypeExpense, 5, "50.00")

	_, err := f.svc.PostTransfer(ctx, PostTransferInput{
		UserID: f.userID, SourceAccountID: 1, DestAccountID: 2,
		Amount: decimal.RequireFromString("25.25"), Memo: "move",
	})
	require.NoError(t, err)

	// 100.10 - 0.01 + 99.91 - 50.00 - 25.25
	assert.Equal(t, "124.75", f.store.balances[1].StringFixed(2))
	assert.Equal(t, "25.25", f.store.balances[2].StringFixed(2))
}
