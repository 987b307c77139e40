package middleware

import (
	"strings"

	"plata-bot/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthMiddleware validates the bearer token and stores the caller's user id
// in the request context.
func AuthMiddleware(jwtManager *auth.JWTManager, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get("Authorization")
		if token == "" {
			logger.Warn("missing authorization token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization token required",
			})
		}
		token = strings.TrimPrefix(token, "Bearer ")

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			logger.Warn("invalid token", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			logger.Warn("malformed user id in token", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("userID", userID)
		return c.Next()
	}
}

// ChannelGuard checks the shared-secret token the messaging provider attaches
// to every webhook delivery. An empty configured token disables the check
// (local development).
func ChannelGuard(verifyToken string, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if verifyToken == "" {
			return c.Next()
		}
		if c.Get("X-Channel-Token") != verifyToken {
			logger.Warn("webhook delivery with bad channel token", zap.String("ip", c.IP()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid channel token",
			})
		}
		return c.Next()
	}
}
