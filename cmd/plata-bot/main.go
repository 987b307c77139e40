package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"plata-bot/internal/api"
	"plata-bot/internal/api/handlers"
	"plata-bot/internal/repository"
	"plata-bot/internal/service"
	"plata-bot/pkg/auth"
	"plata-bot/pkg/config"
	"plata-bot/pkg/logger"
	"plata-bot/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting plata-bot service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db, appLogger)
	categoryRepo := repository.NewCategoryRepository(db, appLogger)
	ledgerRepo := repository.NewLedgerRepository(db, appLogger)
	linkRepo := repository.NewLinkRepository(db, appLogger)
	otpRepo := repository.NewOTPRepository(db, appLogger)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)

	// Initialize services
	composer := service.NewTextComposer()
	notifier := service.NewLogNotifier(appLogger)
	hasher := auth.NewBcryptHasher()

	otpService := service.NewOTPService(otpRepo, hasher, cfg.OTP.TTL, cfg.OTP.MaxAttempts, appLogger)
	linkService := service.NewLinkService(linkRepo, otpService, notifier, composer, cfg.Channel.Name, appLogger)
	ledgerService := service.NewLedgerService(accountRepo, categoryRepo, ledgerRepo, appLogger)
	accountService := service.NewAccountService(accountRepo, ledgerService, appLogger)

	sessions := service.NewSessionManager(appLogger)
	parser := service.NewCommandParser()
	webhookService := service.NewWebhookService(
		linkService, ledgerService, parser, sessions, composer, notifier,
		cfg.Session.Inactivity, appLogger,
	)

	// Initialize handlers
	webhookHandler := handlers.NewWebhookHandler(webhookService, appLogger)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService, appLogger)
	linkHandler := handlers.NewLinkHandler(linkService, appLogger)
	accountHandler := handlers.NewAccountHandler(accountService, appLogger)

	// Setup router
	app := api.SetupRouter(
		webhookHandler, ledgerHandler, linkHandler, accountHandler,
		jwtManager, cfg.Channel.VerifyToken, appLogger,
	)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	sessions.Shutdown()
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
