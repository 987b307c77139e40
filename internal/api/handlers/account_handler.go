package handlers

import (
	"plata-bot/internal/dto"
	"plata-bot/internal/models"
	"plata-bot/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type AccountHandler struct {
	accountService *service.AccountService
	logger         *zap.Logger
}

func NewAccountHandler(accountService *service.AccountService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// CreateAccount godoc
// @Summary Create an account with an optional opening balance
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body dto.CreateAccountRequest true "Account"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string
// @Security Bearer
// @Router /api/v1/accounts [post]
func (h *AccountHandler) CreateAccount(c *fiber.Ctx) error {
	var req dto.CreateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	opening := decimal.Zero
	if req.OpeningBalance != "" {
		var err error
		if opening, err = decimal.NewFromString(req.OpeningBalance); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid opening balance",
			})
		}
	}

	var creditLimit decimal.NullDecimal
	if req.CreditLimit != "" {
		limit, err := decimal.NewFromString(req.CreditLimit)
		if err != nil || limit.IsNegative() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid credit limit",
			})
		}
		creditLimit = decimal.NewNullDecimal(limit)
	}

	account, err := h.accountService.CreateAccount(c.Context(), c.Locals("userID").(uuid.UUID), service.CreateAccountInput{
		Name:           req.Name,
		Currency:       req.Currency,
		Nature:         models.AccountNature(req.Nature),
		OpeningBalance: opening,
		CreditLimit:    creditLimit,
	})
	if err != nil {
		h.logger.Warn("account creation rejected", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(accountResponse(account))
}

// ListAccounts godoc
// @Summary List the authenticated user's accounts
// @Tags accounts
// @Produce json
// @Success 200 {array} dto.AccountResponse
// @Security Bearer
// @Router /api/v1/accounts [get]
func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	accounts, err := h.accountService.ListAccounts(c.Context(), c.Locals("userID").(uuid.UUID))
	if err != nil {
		h.logger.Error("account listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Listing failed",
		})
	}

	resp := make([]dto.AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		resp = append(resp, accountResponse(account))
	}
	return c.JSON(resp)
}

func accountResponse(account *models.Account) dto.AccountResponse {
	return dto.AccountResponse{
		ID:       account.ID,
		Name:     account.Name,
		Currency: account.Currency,
		Nature:   string(account.Nature),
		Balance:  account.Balance.StringFixed(2),
		Active:   account.Active,
	}
}
