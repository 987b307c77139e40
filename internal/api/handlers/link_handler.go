package handlers

import (
	"errors"

	"plata-bot/internal/dto"
	"plata-bot/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LinkHandler struct {
	linkService *service.LinkService
	logger      *zap.Logger
}

func NewLinkHandler(linkService *service.LinkService, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		linkService: linkService,
		logger:      logger,
	}
}

// RequestLink godoc
// @Summary Start linking a channel address to the authenticated user
// @Description Creates a pending link and sends an OTP to the address.
// @Tags links
// @Accept json
// @Produce json
// @Param request body dto.RequestLinkRequest true "Link request"
// @Success 202 {object} dto.LinkResponse
// @Failure 409 {object} map[string]string
// @Security Bearer
// @Router /api/v1/links [post]
func (h *LinkHandler) RequestLink(c *fiber.Ctx) error {
	var req dto.RequestLinkRequest
	if err := c.BodyParser(&req); err != nil || req.Address == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "address is required",
		})
	}

	link, err := h.linkService.RequestLink(c.Context(), c.Locals("userID").(uuid.UUID), req.Address)
	if err != nil {
		if errors.Is(err, service.ErrAddressAlreadyLinked) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Address already linked to a user",
			})
		}
		h.logger.Error("link request failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Link request failed",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(dto.LinkResponse{
		Address: link.Address,
		Channel: link.Channel,
		Status:  string(link.Status),
	})
}

// VerifyLink godoc
// @Summary Verify a pending link with the received OTP
// @Tags links
// @Accept json
// @Produce json
// @Param request body dto.VerifyLinkRequest true "Verification"
// @Success 200 {object} dto.LinkResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security Bearer
// @Router /api/v1/links/verify [post]
func (h *LinkHandler) VerifyLink(c *fiber.Ctx) error {
	var req dto.VerifyLinkRequest
	if err := c.BodyParser(&req); err != nil || req.Address == "" || req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "address and code are required",
		})
	}

	userID := c.Locals("userID").(uuid.UUID)
	if err := h.linkService.VerifyLink(c.Context(), userID, req.Address, req.Code); err != nil {
		return h.verifyError(c, err)
	}

	return c.JSON(dto.LinkResponse{
		Address: req.Address,
		Status:  "VERIFIED",
	})
}

// ResolveLink godoc
// @Summary Resolve the link status of a channel address
// @Tags links
// @Produce json
// @Param address query string true "Channel address"
// @Success 200 {object} dto.ResolveLinkResponse
// @Security Bearer
// @Router /api/v1/links/resolve [get]
func (h *LinkHandler) ResolveLink(c *fiber.Ctx) error {
	address := c.Query("address")
	if address == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "address is required",
		})
	}

	res, err := h.linkService.Resolve(c.Context(), address)
	if err != nil {
		h.logger.Error("resolve failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Resolve failed",
		})
	}

	resp := dto.ResolveLinkResponse{
		Address: address,
		Status:  string(res.Status),
	}
	if res.UserID != uuid.Nil {
		resp.UserID = res.UserID.String()
	}
	return c.JSON(resp)
}

func (h *LinkHandler) verifyError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrLinkNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No pending link for this address"})
	case errors.Is(err, service.ErrLinkNotPending), errors.Is(err, service.ErrAddressAlreadyLinked):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrOTPNotFound),
		errors.Is(err, service.ErrOTPExpired),
		errors.Is(err, service.ErrOTPExhausted),
		errors.Is(err, service.ErrOTPInvalid):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	default:
		h.logger.Error("verification failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Verification failed",
		})
	}
}
