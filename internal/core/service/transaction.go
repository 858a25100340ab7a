package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shivam-0510/Banking-app/internal/core/domain"
	"github.com/shivam-0510/Banking-app/internal/core/idgen"
)

// maxCommitAttempts bounds the internal retry on version conflicts. Limit
// checks and balance arithmetic are invalid across a stale read, so every
// attempt restarts from a fresh account load.
const maxCommitAttempts = 5

// TransactionService is the money movement engine: deposit, withdrawal and
// transfer, each atomic from the caller's point of view.
type TransactionService struct {
	store  Store
	ids    *idgen.Generator
	limits *LimitEvaluator
	clock  Clock
}

func NewTransactionService(store Store, ids *idgen.Generator, limits *LimitEvaluator, clock Clock) *TransactionService {
	return &TransactionService{store: store, ids: ids, limits: limits, clock: clock}
}

// MovementParams carries a deposit or withdrawal request.
type MovementParams struct {
	AccountNumber   string
	Amount          decimal.Decimal
	Description     string
	ReferenceNumber string
}

// TransferParams carries a transfer request between two accounts.
type TransferParams struct {
	SourceAccountNumber      string
	DestinationAccountNumber string
	Amount                   decimal.Decimal
	Description              string
	ReferenceNumber          string
}

// Deposit credits the account and returns the committed transaction.
func (s *TransactionService) Deposit(ctx context.Context, p MovementParams) (*domain.Transaction, error) {
	if err := domain.RequirePositiveAmount(p.Amount); err != nil {
		return nil, err
	}
	return s.commitWithRetry(ctx, "deposit", func(ctx context.Context) (*domain.Transaction, error) {
		return s.depositOnce(ctx, p)
	})
}

// Withdraw debits the account, allowing the balance to dip as far as the
// overdraft limit, and returns the committed transaction.
func (s *TransactionService) Withdraw(ctx context.Context, p MovementParams) (*domain.Transaction, error) {
	if err := domain.RequirePositiveAmount(p.Amount); err != nil {
		return nil, err
	}
	return s.commitWithRetry(ctx, "withdrawal", func(ctx context.Context) (*domain.Transaction, error) {
		return s.withdrawOnce(ctx, p)
	})
}

// Transfer moves money between two accounts, recording one ledger row per
// account under a shared reference number, and returns the source leg.
func (s *TransactionService) Transfer(ctx context.Context, p TransferParams) (*domain.Transaction, error) {
	if err := domain.RequirePositiveAmount(p.Amount); err != nil {
		return nil, err
	}
	if p.SourceAccountNumber == p.DestinationAccountNumber {
		return nil, fmt.Errorf("cannot transfer to the same account: %w", domain.ErrInvalidOperation)
	}
	return s.commitWithRetry(ctx, "transfer", func(ctx context.Context) (*domain.Transaction, error) {
		return s.transferOnce(ctx, p)
	})
}

// commitWithRetry re-runs the whole read-validate-commit cycle on version
// conflicts. Business-rule failures surface immediately.
func (s *TransactionService) commitWithRetry(ctx context.Context, op string, attempt func(context.Context) (*domain.Transaction, error)) (*domain.Transaction, error) {
	var lastErr error
	for i := 1; i <= maxCommitAttempts; i++ {
		tx, err := attempt(ctx)
		if err == nil {
			return tx, nil
		}
		if !errors.Is(err, domain.ErrConcurrentModification) {
			return nil, err
		}
		lastErr = err
		slog.Warn("Commit conflict, retrying", "operation", op, "attempt", i)
	}
	return nil, fmt.Errorf("%s: commit retries exhausted: %w", op, lastErr)
}

func (s *TransactionService) depositOnce(ctx context.Context, p MovementParams) (*domain.Transaction, error) {
	account, err := s.store.GetAccountByNumber(ctx, p.AccountNumber)
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, fmt.Errorf("cannot deposit to an inactive account: %w", domain.ErrInvalidOperation)
	}
	if err := s.limits.CheckDailyTransactionLimit(ctx, account, p.Amount, domain.Deposit); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	newBalance := account.Balance.Add(p.Amount)
	account.Balance = newBalance
	account.UpdatedAt = now

	tx := &domain.Transaction{
		ID:                       uuid.New(),
		TransactionID:            s.ids.TransactionID(),
		AccountID:                account.ID,
		Amount:                   p.Amount,
		Type:                     domain.Deposit,
		Status:                   domain.StatusCompleted,
		DestinationAccountNumber: account.AccountNumber,
		ReferenceNumber:          p.ReferenceNumber,
		Description:              defaultDescription(p.Description, "Deposit"),
		TransactionDate:          now,
		BalanceAfterTransaction:  newBalance,
	}

	if err := s.store.CommitMovement(ctx, []*domain.Account{account}, []*domain.Transaction{tx}); err != nil {
		return nil, err
	}
	slog.Info("Deposit completed", "account", account.AccountNumber, "amount", p.Amount, "balance", newBalance)
	return tx, nil
}

func (s *TransactionService) withdrawOnce(ctx context.Context, p MovementParams) (*domain.Transaction, error) {
	account, err := s.store.GetAccountByNumber(ctx, p.AccountNumber)
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, fmt.Errorf("cannot withdraw from an inactive account: %w", domain.ErrInvalidOperation)
	}
	if err := s.limits.CheckDailyWithdrawalLimit(ctx, account, p.Amount); err != nil {
		return nil, err
	}
	if err := s.limits.CheckDailyTransactionLimit(ctx, account, p.Amount, domain.Withdrawal); err != nil {
		return nil, err
	}
	if account.AvailableBalance().LessThan(p.Amount) {
		return nil, fmt.Errorf("insufficient balance for withdrawal: %w", domain.ErrInsufficientBalance)
	}
	if account.MinimumBalance != nil && account.Balance.LessThan(p.Amount.Add(*account.MinimumBalance)) {
		// Allowed, but the account is now drawing on its overdraft.
		slog.Info("Withdrawal will use overdraft protection", "account", account.AccountNumber)
	}

	now := s.clock.Now()
	newBalance := account.Balance.Sub(p.Amount)
	account.Balance = newBalance
	account.UpdatedAt = now

	tx := &domain.Transaction{
		ID:                      uuid.New(),
		TransactionID:           s.ids.TransactionID(),
		AccountID:               account.ID,
		Amount:                  p.Amount,
		Type:                    domain.Withdrawal,
		Status:                  domain.StatusCompleted,
		SourceAccountNumber:     account.AccountNumber,
		ReferenceNumber:         p.ReferenceNumber,
		Description:             defaultDescription(p.Description, "Withdrawal"),
		TransactionDate:         now,
		BalanceAfterTransaction: newBalance,
	}

	if err := s.store.CommitMovement(ctx, []*domain.Account{account}, []*domain.Transaction{tx}); err != nil {
		return nil, err
	}
	slog.Info("Withdrawal completed", "account", account.AccountNumber, "amount", p.Amount, "balance", newBalance)
	return tx, nil
}

func (s *TransactionService) transferOnce(ctx context.Context, p TransferParams) (*domain.Transaction, error) {
	source, err := s.store.GetAccountByNumber(ctx, p.SourceAccountNumber)
	if err != nil {
		return nil, err
	}
	destination, err := s.store.GetAccountByNumber(ctx, p.DestinationAccountNumber)
	if err != nil {
		return nil, err
	}
	if !source.Active || !destination.Active {
		return nil, fmt.Errorf("cannot transfer between inactive accounts: %w", domain.ErrInvalidOperation)
	}
	if err := s.limits.CheckDailyWithdrawalLimit(ctx, source, p.Amount); err != nil {
		return nil, err
	}
	if err := s.limits.CheckDailyTransactionLimit(ctx, source, p.Amount, domain.Transfer); err != nil {
		return nil, err
	}
	if source.AvailableBalance().LessThan(p.Amount) {
		return nil, fmt.Errorf("insufficient balance for transfer: %w", domain.ErrInsufficientBalance)
	}

	now := s.clock.Now()
	newSourceBalance := source.Balance.Sub(p.Amount)
	newDestinationBalance := destination.Balance.Add(p.Amount)
	source.Balance = newSourceBalance
	source.UpdatedAt = now
	destination.Balance = newDestinationBalance
	destination.UpdatedAt = now

	// Both legs share one reference number for traceability.
	reference := p.ReferenceNumber
	if reference == "" {
		reference = s.ids.ReferenceNumber()
	}

	sourceLeg := &domain.Transaction{
		ID:                       uuid.New(),
		TransactionID:            s.ids.TransactionID(),
		AccountID:                source.ID,
		Amount:                   p.Amount,
		Type:                     domain.Transfer,
		Status:                   domain.StatusCompleted,
		SourceAccountNumber:      source.AccountNumber,
		DestinationAccountNumber: destination.AccountNumber,
		ReferenceNumber:          reference,
		Description:              defaultDescription(p.Description, "Transfer to "+destination.AccountNumber),
		TransactionDate:          now,
		BalanceAfterTransaction:  newSourceBalance,
	}
	destinationLeg := &domain.Transaction{
		ID:                       uuid.New(),
		TransactionID:            s.ids.TransactionID(),
		AccountID:                destination.ID,
		Amount:                   p.Amount,
		Type:                     domain.Deposit,
		Status:                   domain.StatusCompleted,
		SourceAccountNumber:      source.AccountNumber,
		DestinationAccountNumber: destination.AccountNumber,
		ReferenceNumber:          reference,
		Description:              defaultDescription(p.Description, "Transfer from "+source.AccountNumber),
		TransactionDate:          now,
		BalanceAfterTransaction:  newDestinationBalance,
	}

	err = s.store.CommitMovement(ctx,
		[]*domain.Account{source, destination},
		[]*domain.Transaction{sourceLeg, destinationLeg})
	if err != nil {
		return nil, err
	}
	slog.Info("Transfer completed", "source", source.AccountNumber, "destination", destination.AccountNumber,
		"amount", p.Amount, "reference", reference)
	return sourceLeg, nil
}

// GetTransactionByID looks up one transaction by its external id.
func (s *TransactionService) GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return s.store.GetTransactionByID(ctx, transactionID)
}

// GetTransactionsByAccountNumber lists an account's full history.
func (s *TransactionService) GetTransactionsByAccountNumber(ctx context.Context, accountNumber string) ([]domain.Transaction, error) {
	account, err := s.store.GetAccountByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	return s.store.GetTransactionsByAccount(ctx, account.ID)
}

// GetTransactionsByAccountNumberPaged is the paginated history read.
func (s *TransactionService) GetTransactionsByAccountNumberPaged(ctx context.Context, accountNumber string, req domain.PageRequest) (*domain.Page[domain.Transaction], error) {
	account, err := s.store.GetAccountByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	return s.store.GetTransactionsByAccountPaged(ctx, account.ID, req)
}

// GetTransactionsByDateRange lists history within [start, end).
func (s *TransactionService) GetTransactionsByDateRange(ctx context.Context, accountNumber string, start, end time.Time) ([]domain.Transaction, error) {
	account, err := s.store.GetAccountByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	return s.store.GetTransactionsByDateRange(ctx, account.ID, start, end)
}

func defaultDescription(given, fallback string) string {
	if given != "" {
		return given
	}
	return fallback
}
