// Package service holds the transactional core of the ledger: the account
// lifecycle, the daily-limit policy and the money movement engine. The
// services are transport-agnostic; HTTP lives in the adapter layer.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shivam-0510/Banking-app/internal/core/domain"
)

// Store is the durable ledger the services run against. Implementations must
// make CreateAccount and CommitMovement all-or-nothing: a balance update is
// never visible without its transaction rows, or vice versa.
type Store interface {
	// CreateAccount persists a new account and, when initialDeposit is
	// non-nil, its opening transaction as a single unit. Returns
	// domain.ErrDuplicateAccountNumber when the account number is taken.
	CreateAccount(ctx context.Context, account *domain.Account, initialDeposit *domain.Transaction) error

	GetAccountByNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	GetAccountsByOwner(ctx context.Context, ownerID string) ([]domain.Account, error)
	GetAccountsByOwnerPaged(ctx context.Context, ownerID string, req domain.PageRequest) (*domain.Page[domain.Account], error)
	CountAccountsByOwner(ctx context.Context, ownerID string) (int64, error)

	// UpdateAccount persists non-balance mutations (status toggles) with
	// the same version check as CommitMovement.
	UpdateAccount(ctx context.Context, account *domain.Account) error

	// CommitMovement atomically persists one or more account balance
	// mutations together with their new transaction rows. It fails with
	// domain.ErrConcurrentModification if any account's version no longer
	// matches the value read by the caller.
	CommitMovement(ctx context.Context, accounts []*domain.Account, txns []*domain.Transaction) error

	GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)
	GetTransactionsByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error)
	GetTransactionsByAccountPaged(ctx context.Context, accountID uuid.UUID, req domain.PageRequest) (*domain.Page[domain.Transaction], error)
	GetTransactionsByDateRange(ctx context.Context, accountID uuid.UUID, start, end time.Time) ([]domain.Transaction, error)

	// SumAmountByTypeAndDateRange returns the total amount of the given
	// transaction type within [start, end). Zero when nothing matches.
	SumAmountByTypeAndDateRange(ctx context.Context, accountID uuid.UUID, t domain.TransactionType, start, end time.Time) (decimal.Decimal, error)
}

// Clock is injected so the daily-limit windows are testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock used outside tests.
var SystemClock Clock = systemClock{}
