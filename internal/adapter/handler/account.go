package handler

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/shivam-0510/Banking-app/internal/core/domain"
	"github.com/shivam-0510/Banking-app/internal/core/service"
)

type AccountHandler struct {
	Accounts *service.AccountService
}

// CreateAccountRequest defines what the client sends us. Limit and rate
// fields are optional overrides of the type defaults.
type CreateAccountRequest struct {
	OwnerID        string          `json:"owner_id"`
	AccountType    string          `json:"account_type"`
	InitialDeposit decimal.Decimal `json:"initial_deposit"`
	Currency       string          `json:"currency"`

	DailyTransactionLimit *decimal.Decimal `json:"daily_transaction_limit"`
	DailyWithdrawalLimit  *decimal.Decimal `json:"daily_withdrawal_limit"`
	InterestRate          *float64         `json:"interest_rate"`
	OverdraftLimit        *decimal.Decimal `json:"overdraft_limit"`
	MinimumBalance        *decimal.Decimal `json:"minimum_balance"`
}

type UpdateStatusRequest struct {
	Active bool `json:"active"`
}

func (h *AccountHandler) CreateAccount(c *fiber.Ctx) error {
	var req CreateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Warn("Invalid account body", "error", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	account, err := h.Accounts.CreateAccount(c.Context(), service.CreateAccountParams{
		OwnerID:               req.OwnerID,
		AccountType:           domain.AccountType(req.AccountType),
		InitialDeposit:        req.InitialDeposit,
		Currency:              req.Currency,
		DailyTransactionLimit: req.DailyTransactionLimit,
		DailyWithdrawalLimit:  req.DailyWithdrawalLimit,
		InterestRate:          req.InterestRate,
		OverdraftLimit:        req.OverdraftLimit,
		MinimumBalance:        req.MinimumBalance,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(account)
}

func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	account, err := h.Accounts.GetAccountByNumber(c.Context(), c.Params("accountNumber"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(account)
}

// GetOwnerAccounts lists an owner's accounts; with ?page= it returns the
// paginated envelope instead.
func (h *AccountHandler) GetOwnerAccounts(c *fiber.Ctx) error {
	ownerID := c.Params("ownerId")

	if c.Query("page") != "" || c.Query("size") != "" {
		page, err := h.Accounts.GetAccountsByOwnerPaged(c.Context(), ownerID, pageRequest(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(page)
	}

	accounts, err := h.Accounts.GetAccountsByOwner(c.Context(), ownerID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"accounts": accounts})
}

func (h *AccountHandler) GetOwnerBalance(c *fiber.Ctx) error {
	ownerID := c.Params("ownerId")
	total, err := h.Accounts.TotalBalanceByOwner(c.Context(), ownerID)
	if err != nil {
		return fail(c, err)
	}
	count, err := h.Accounts.CountAccountsByOwner(c.Context(), ownerID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"owner_id": ownerID, "total_balance": total, "account_count": count})
}

func (h *AccountHandler) UpdateStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	account, err := h.Accounts.UpdateStatus(c.Context(), c.Params("accountNumber"), req.Active)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(account)
}

func pageRequest(c *fiber.Ctx) domain.PageRequest {
	size := c.QueryInt("size", 10)
	if size == 0 {
		size = 10
	}
	// A negative page or size is left for the store to reject as invalid.
	return domain.PageRequest{
		Page:      c.QueryInt("page", 0),
		Size:      size,
		SortBy:    c.Query("sort_by", "created_at"),
		Direction: c.Query("direction", "asc"),
	}
}
