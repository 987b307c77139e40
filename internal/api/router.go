package api

import (
	"plata-bot/internal/api/handlers"
	"plata-bot/pkg/auth"
	"plata-bot/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func SetupRouter(
	webhookHandler *handlers.WebhookHandler,
	ledgerHandler *handlers.LedgerHandler,
	linkHandler *handlers.LinkHandler,
	accountHandler *handlers.AccountHandler,
	jwtManager *auth.JWTManager,
	channelVerifyToken string,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Channel-Token",
	}))
	app.Use(logger.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Channel webhook (shared-secret guard, no JWT)
	webhook := app.Group("/webhook", middleware.ChannelGuard(channelVerifyToken, appLogger))
	webhook.Post("/inbound", webhookHandler.HandleInbound)

	// Authenticated client surface
	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, appLogger))

	protected.Post("/movements", ledgerHandler.PostMovement)
	protected.Post("/transfers", ledgerHandler.PostTransfer)

	protected.Post("/accounts", accountHandler.CreateAccount)
	protected.Get("/accounts", accountHandler.ListAccounts)

	protected.Post("/links", linkHandler.RequestLink)
	protected.Post("/links/verify", linkHandler.VerifyLink)
	protected.Get("/links/resolve", linkHandler.ResolveLink)

	return app
}
