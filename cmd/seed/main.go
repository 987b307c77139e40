package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"plata-bot/internal/models"
	"plata-bot/internal/repository"
	"plata-bot/internal/service"
	"plata-bot/pkg/auth"
	"plata-bot/pkg/config"
	"plata-bot/pkg/logger"
	"plata-bot/pkg/postgres"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Schema statements are idempotent; rerunning the seeder is safe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id BIGSERIAL PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		currency CHAR(3) NOT NULL,
		balance NUMERIC(14,2) NOT NULL DEFAULT 0,
		nature TEXT NOT NULL,
		credit_limit NUMERIC(14,2),
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id BIGSERIAL PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		direction TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS subcategories (
		id BIGSERIAL PRIMARY KEY,
		category_id BIGINT NOT NULL REFERENCES categories(id),
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS movements (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		account_id BIGINT NOT NULL REFERENCES accounts(id),
		type TEXT NOT NULL,
		category_id BIGINT REFERENCES categories(id),
		subcategory_id BIGINT REFERENCES subcategories(id),
		amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
		date TIMESTAMPTZ NOT NULL,
		memo TEXT NOT NULL DEFAULT '',
		origin TEXT NOT NULL,
		external_event_id TEXT,
		transfer_id UUID,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	// Idempotency contract: one committed movement per external event per user.
	`CREATE UNIQUE INDEX IF NOT EXISTS movements_user_external_event_idx
		ON movements (user_id, external_event_id)
		WHERE external_event_id IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS identity_links (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		channel TEXT NOT NULL,
		address TEXT NOT NULL,
		status TEXT NOT NULL,
		verified_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	// One verified link per (channel, address) system-wide.
	`CREATE UNIQUE INDEX IF NOT EXISTS identity_links_verified_address_idx
		ON identity_links (channel, address)
		WHERE status = 'VERIFIED'`,
	`CREATE TABLE IF NOT EXISTS otp_codes (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		channel TEXT NOT NULL,
		address TEXT NOT NULL,
		code_hash TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		used_at TIMESTAMPTZ,
		attempts INT NOT NULL DEFAULT 0,
		max_attempts INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

const demoEmail = "demo@plata.local"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	appLogger.Info("Applying schema")
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			appLogger.Fatal("Schema statement failed", zap.Error(err))
		}
	}

	userRepo := repository.NewUserRepository(db, appLogger)
	accountRepo := repository.NewAccountRepository(db, appLogger)
	categoryRepo := repository.NewCategoryRepository(db, appLogger)
	ledgerRepo := repository.NewLedgerRepository(db, appLogger)

	ledgerService := service.NewLedgerService(accountRepo, categoryRepo, ledgerRepo, appLogger)
	accountService := service.NewAccountService(accountRepo, ledgerService, appLogger)

	user, err := userRepo.GetByEmail(ctx, demoEmail)
	if err == nil {
		appLogger.Info("Demo user already present, skipping fixtures", zap.String("user_id", user.ID.String()))
	} else {
		user, err = seedDemoData(ctx, userRepo, categoryRepo, accountService, appLogger)
		if err != nil {
			appLogger.Fatal("Seeding failed", zap.Error(err))
		}
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)
	token, err := jwtManager.GenerateToken(user.ID.String())
	if err != nil {
		appLogger.Fatal("Token generation failed", zap.Error(err))
	}

	appLogger.Info("Database seeding completed")
	fmt.Printf("Demo user: %s\nDemo token: %s\n", demoEmail, token)
}

func seedDemoData(
	ctx context.Context,
	userRepo *repository.UserRepository,
	categoryRepo *repository.CategoryRepository,
	accountService *service.AccountService,
	appLogger *zap.Logger,
) (*models.User, error) {
	now := time.Now()

	hashed, err := bcrypt.GenerateFromPassword([]byte("demo-password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:        uuid.New(),
		Username:  "demo",
		Email:     demoEmail,
		Password:  string(hashed),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	accounts := []struct {
		name    string
		opening string
	}{
		{"Billetera", "1000.00"},
		{"Banco", "5000.00"},
	}
	for _, a := range accounts {
		opening, _ := decimal.NewFromString(a.opening)
		account, err := accountService.CreateAccount(ctx, user.ID, service.CreateAccountInput{
			Name:           a.name,
			Currency:       "ARS",
			Nature:         models.AccountNatureAsset,
			OpeningBalance: opening,
		})
		if err != nil {
			return nil, err
		}
		appLogger.Info("Seeded account", zap.Int64("account_id", account.ID), zap.String("name", a.name))
	}

	categories := []struct {
		name      string
		direction models.CategoryDirection
		subs      []string
	}{
		{"Sueldo", models.CategoryDirectionIncome, nil},
		{"Ventas", models.CategoryDirectionIncome, nil},
		{"Comida", models.CategoryDirectionExpense, []string{"Supermercado", "Restaurante"}},
		{"Transporte", models.CategoryDirectionExpense, nil},
		{"Servicios", models.CategoryDirectionExpense, []string{"Luz", "Internet"}},
	}
	for _, c := range categories {
		category := &models.Category{
			UserID:    user.ID,
			Name:      c.name,
			Direction: c.direction,
			CreatedAt: now,
		}
		if err := categoryRepo.Create(ctx, category); err != nil {
			return nil, err
		}
		for _, subName := range c.subs {
			sub := &models.Subcategory{
				CategoryID: category.ID,
				Name:       subName,
				CreatedAt:  now,
			}
			if err := categoryRepo.CreateSubcategory(ctx, sub); err != nil {
				return nil, err
			}
		}
		appLogger.Info("Seeded category", zap.Int64("category_id", category.ID), zap.String("name", c.name))
	}

	return user, nil
}
