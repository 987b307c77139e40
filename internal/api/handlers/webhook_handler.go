package handlers

import (
	"plata-bot/internal/dto"
	"plata-bot/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type WebhookHandler struct {
	webhookService *service.WebhookService
	logger         *zap.Logger
}

func NewWebhookHandler(webhookService *service.WebhookService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		logger:         logger,
	}
}

// HandleInbound godoc
// @Summary Receive an inbound channel message
// @Description Entry point for messaging-channel deliveries. Redelivery of the
// @Description same external_event_id is safe: movements are deduplicated per user.
// @Tags webhook
// @Accept json
// @Produce json
// @Param request body dto.InboundMessageRequest true "Inbound message"
// @Success 202 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /webhook/inbound [post]
func (h *WebhookHandler) HandleInbound(c *fiber.Ctx) error {
	var req dto.InboundMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.SenderAddress == "" || req.ExternalEventID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "sender_address and external_event_id are required",
		})
	}

	if err := h.webhookService.HandleInbound(c.Context(), &req); err != nil {
		// A non-2xx makes the channel redeliver; the idempotency key keeps
		// the retry from double-posting.
		h.logger.Error("inbound processing failed",
			zap.String("external_event_id", req.ExternalEventID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Processing failed",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "accepted",
	})
}
