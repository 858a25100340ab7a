package handler

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/shivam-0510/Banking-app/internal/core/service"
)

type TransactionHandler struct {
	Transactions *service.TransactionService
}

type MovementRequest struct {
	AccountNumber   string          `json:"account_number"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	ReferenceNumber string          `json:"reference_number"`
}

type TransferRequest struct {
	SourceAccountNumber      string          `json:"source_account_number"`
	DestinationAccountNumber string          `json:"destination_account_number"`
	Amount                   decimal.Decimal `json:"amount"`
	Description              string          `json:"description"`
	ReferenceNumber          string          `json:"reference_number"`
}

func (h *TransactionHandler) Deposit(c *fiber.Ctx) error {
	var req MovementRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	txn, err := h.Transactions.Deposit(c.Context(), service.MovementParams{
		AccountNumber:   req.AccountNumber,
		Amount:          req.Amount,
		Description:     req.Description,
		ReferenceNumber: req.ReferenceNumber,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(txn)
}

func (h *TransactionHandler) Withdraw(c *fiber.Ctx) error {
	var req MovementRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	txn, err := h.Transactions.Withdraw(c.Context(), service.MovementParams{
		AccountNumber:   req.AccountNumber,
		Amount:          req.Amount,
		Description:     req.Description,
		ReferenceNumber: req.ReferenceNumber,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(txn)
}

func (h *TransactionHandler) Transfer(c *fiber.Ctx) error {
	var req TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	txn, err := h.Transactions.Transfer(c.Context(), service.TransferParams{
		SourceAccountNumber:      req.SourceAccountNumber,
		DestinationAccountNumber: req.DestinationAccountNumber,
		Amount:                   req.Amount,
		Description:              req.Description,
		ReferenceNumber:          req.ReferenceNumber,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(txn)
}

func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	txn, err := h.Transactions.GetTransactionByID(c.Context(), c.Params("transactionId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(txn)
}

// GetHistory lists an account's transactions. Supports ?page=&size= for the
// paginated envelope and ?start_date=&end_date= (RFC 3339) for a date range.
func (h *TransactionHandler) GetHistory(c *fiber.Ctx) error {
	accountNumber := c.Params("accountNumber")

	if c.Query("start_date") != "" || c.Query("end_date") != "" {
		start, end, err := dateRange(c)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		txns, err := h.Transactions.GetTransactionsByDateRange(c.Context(), accountNumber, start, end)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"transactions": txns})
	}

	if c.Query("page") != "" || c.Query("size") != "" {
		page, err := h.Transactions.GetTransactionsByAccountNumberPaged(c.Context(), accountNumber, pageRequest(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(page)
	}

	txns, err := h.Transactions.GetTransactionsByAccountNumber(c.Context(), accountNumber)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"transactions": txns})
}

func dateRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, c.Query("start_date"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.Parse(time.RFC3339, c.Query("end_date"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}
