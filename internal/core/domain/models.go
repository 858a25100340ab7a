package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType drives the policy defaults applied at creation time.
type AccountType string

const (
	Savings    AccountType = "SAVINGS"
	Checking   AccountType = "CHECKING"
	Credit     AccountType = "CREDIT"
	Loan       AccountType = "LOAN"
	Investment AccountType = "INVESTMENT"
)

type TransactionType string

const (
	Deposit    TransactionType = "DEPOSIT"
	Withdrawal TransactionType = "WITHDRAWAL"
	Transfer   TransactionType = "TRANSFER"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
)

// Account is a balance-holding entity owned by an external identity.
// Balance is only ever mutated through the movement engine (and once at
// creation); Version backs the optimistic-concurrency check at commit time.
type Account struct {
	ID            uuid.UUID       `json:"id"`
	AccountNumber string          `json:"account_number"`
	OwnerID       string          `json:"owner_id"`
	AccountType   AccountType     `json:"account_type"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	Active        bool            `json:"active"`

	// Policy fields. A nil limit means "no limit configured".
	DailyTransactionLimit *decimal.Decimal `json:"daily_transaction_limit,omitempty"`
	DailyWithdrawalLimit  *decimal.Decimal `json:"daily_withdrawal_limit,omitempty"`
	InterestRate          *float64         `json:"interest_rate,omitempty"`
	OverdraftLimit        *decimal.Decimal `json:"overdraft_limit,omitempty"`
	MinimumBalance        *decimal.Decimal `json:"minimum_balance,omitempty"`

	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transaction is one immutable ledger row: a single balance-affecting event
// against a single account. A transfer writes two of these, one per account,
// sharing a reference number.
type Transaction struct {
	ID                       uuid.UUID         `json:"id"`
	TransactionID            string            `json:"transaction_id"`
	AccountID                uuid.UUID         `json:"account_id"`
	Amount                   decimal.Decimal   `json:"amount"`
	Type                     TransactionType   `json:"transaction_type"`
	Status                   TransactionStatus `json:"status"`
	SourceAccountNumber      string            `json:"source_account_number,omitempty"`
	DestinationAccountNumber string            `json:"destination_account_number,omitempty"`
	ReferenceNumber          string            `json:"reference_number,omitempty"`
	Description              string            `json:"description"`
	TransactionDate          time.Time         `json:"transaction_date"`
	BalanceAfterTransaction  decimal.Decimal   `json:"balance_after_transaction"`
}

// PageRequest describes a paginated read. Direction is "asc" or "desc".
type PageRequest struct {
	Page      int
	Size      int
	SortBy    string
	Direction string
}

// Validate rejects page indexes and sizes that no query can satisfy.
func (r PageRequest) Validate() error {
	if r.Page < 0 {
		return fmt.Errorf("page index %d must not be negative: %w", r.Page, ErrInvalidOperation)
	}
	if r.Size < 0 {
		return fmt.Errorf("page size %d must not be negative: %w", r.Size, ErrInvalidOperation)
	}
	return nil
}

// Page is the envelope returned by paginated queries.
type Page[T any] struct {
	Content     []T   `json:"content"`
	CurrentPage int   `json:"current_page"`
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	Size        int   `json:"size"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// NewPage fills in the derived pagination fields from the total row count.
func NewPage[T any](content []T, req PageRequest, total int64) *Page[T] {
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return &Page[T]{
		Content:     content,
		CurrentPage: req.Page,
		TotalItems:  total,
		TotalPages:  totalPages,
		Size:        req.Size,
		HasNext:     req.Page+1 < totalPages,
		HasPrevious: req.Page > 0,
	}
}
