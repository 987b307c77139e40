package handlers

import (
	"errors"
	"time"

	"plata-bot/internal/dto"
	"plata-bot/internal/models"
	"plata-bot/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type LedgerHandler struct {
	ledgerService *service.LedgerService
	logger        *zap.Logger
}

func NewLedgerHandler(ledgerService *service.LedgerService, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// PostMovement godoc
// @Summary Post an income or expense movement
// @Tags ledger
// @Accept json
// @Produce json
// @Param request body dto.PostMovementRequest true "Movement"
// @Success 201 {object} dto.MovementResponse
// @Success 200 {object} dto.MovementResponse "already processed"
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security Bearer
// @Router /api/v1/movements [post]
func (h *LedgerHandler) PostMovement(c *fiber.Ctx) error {
	var req dto.PostMovementRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	movementType := models.MovementType(req.Type)
	if movementType != models.MovementTypeIncome && movementType != models.MovementTypeExpense {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "type must be INCOME or EXPENSE",
		})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid amount",
		})
	}

	date, ok := parseDate(req.Date)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid date, expected YYYY-MM-DD",
		})
	}

	result, err := h.ledgerService.PostMovement(c.Context(), service.PostMovementInput{
		UserID:          c.Locals("userID").(uuid.UUID),
		Type:            movementType,
		AccountID:       req.AccountID,
		CategoryID:      req.CategoryID,
		SubcategoryID:   req.SubcategoryID,
		Amount:          amount,
		Memo:            req.Memo,
		Date:            date,
		Origin:          models.MovementOriginManual,
		ExternalEventID: req.ExternalEventID,
	})
	if err != nil {
		return h.ledgerError(c, err, "movement rejected")
	}

	status := fiber.StatusCreated
	if result.AlreadyProcessed {
		// Idempotency hit: a successful no-op referencing the prior movement.
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(movementResponse(result))
}

// PostTransfer godoc
// @Summary Transfer between two own accounts
// @Tags ledger
// @Accept json
// @Produce json
// @Param request body dto.PostTransferRequest true "Transfer"
// @Success 201 {object} dto.TransferResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security Bearer
// @Router /api/v1/transfers [post]
func (h *LedgerHandler) PostTransfer(c *fiber.Ctx) error {
	var req dto.PostTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid amount",
		})
	}

	date, ok := parseDate(req.Date)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid date, expected YYYY-MM-DD",
		})
	}

	result, err := h.ledgerService.PostTransfer(c.Context(), service.PostTransferInput{
		UserID:          c.Locals("userID").(uuid.UUID),
		SourceAccountID: req.SourceAccountID,
		DestAccountID:   req.DestAccountID,
		Amount:          amount,
		Memo:            req.Memo,
		Date:            date,
		Origin:          models.MovementOriginManual,
	})
	if err != nil {
		return h.ledgerError(c, err, "transfer rejected")
	}

	return c.Status(fiber.StatusCreated).JSON(dto.TransferResponse{
		TransferID:      result.TransferID.String(),
		SourceAccountID: req.SourceAccountID,
		DestAccountID:   req.DestAccountID,
		Amount:          result.Out.Amount.StringFixed(2),
		Memo:            result.Out.Memo,
		Date:            result.Out.Date.Format(dateLayout),
		SourceBalance:   result.SourceBalance.StringFixed(2),
		DestBalance:     result.DestBalance.StringFixed(2),
	})
}

func (h *LedgerHandler) ledgerError(c *fiber.Ctx, err error, logMsg string) error {
	switch {
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrSubcategoryNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidType),
		errors.Is(err, service.ErrAccountInactive),
		errors.Is(err, service.ErrCategoryDirection),
		errors.Is(err, service.ErrSubcategoryMismatch),
		errors.Is(err, service.ErrSameAccount),
		errors.Is(err, service.ErrCurrencyMismatch):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		h.logger.Error(logMsg, zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal error",
		})
	}
}

func movementResponse(result *service.MovementResult) dto.MovementResponse {
	m := result.Movement
	return dto.MovementResponse{
		ID:               m.ID.String(),
		AccountID:        m.AccountID,
		Type:             string(m.Type),
		Amount:           m.Amount.StringFixed(2),
		Memo:             m.Memo,
		Date:             m.Date.Format(dateLayout),
		Balance:          result.Balance.StringFixed(2),
		AlreadyProcessed: result.AlreadyProcessed,
	}
}

func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}
