package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shivam-0510/Banking-app/internal/core/domain"
	"github.com/shivam-0510/Banking-app/internal/core/idgen"
)

// maxNumberAttempts bounds regeneration when a fresh account number collides
// with an existing one. Collisions are rare (10 random digits per type code).
const maxNumberAttempts = 5

// AccountService manages the account lifecycle: creation with type-specific
// defaults, status toggling, and the owner-scoped read paths.
type AccountService struct {
	store Store
	ids   *idgen.Generator
	clock Clock
}

func NewAccountService(store Store, ids *idgen.Generator, clock Clock) *AccountService {
	return &AccountService{store: store, ids: ids, clock: clock}
}

// CreateAccountParams carries a creation request. Limit and rate fields are
// optional overrides; nil means "use the type default".
type CreateAccountParams struct {
	OwnerID        string
	AccountType    domain.AccountType
	InitialDeposit decimal.Decimal
	Currency       string

	DailyTransactionLimit *decimal.Decimal
	DailyWithdrawalLimit  *decimal.Decimal
	InterestRate          *float64
	OverdraftLimit        *decimal.Decimal
	MinimumBalance        *decimal.Decimal
}

// CreateAccount builds a fully-populated account and persists it together
// with its initial-deposit transaction (when the deposit is positive) as one
// unit. A nonzero balance is never left without matching history.
func (s *AccountService) CreateAccount(ctx context.Context, p CreateAccountParams) (*domain.Account, error) {
	if p.OwnerID == "" {
		return nil, fmt.Errorf("owner id is required: %w", domain.ErrInvalidOperation)
	}
	if !domain.ValidCurrency(p.Currency) {
		return nil, fmt.Errorf("currency must be a 3-letter uppercase code, got %q: %w", p.Currency, domain.ErrInvalidOperation)
	}
	if p.InitialDeposit.Sign() < 0 {
		return nil, fmt.Errorf("initial deposit cannot be negative: %w", domain.ErrInvalidOperation)
	}

	for attempt := 1; ; attempt++ {
		account := s.buildAccount(p)

		var opening *domain.Transaction
		if p.InitialDeposit.Sign() > 0 {
			opening = &domain.Transaction{
				ID:                       uuid.New(),
				TransactionID:            s.ids.TransactionID(),
				AccountID:                account.ID,
				Amount:                   p.InitialDeposit,
				Type:                     domain.Deposit,
				Status:                   domain.StatusCompleted,
				DestinationAccountNumber: account.AccountNumber,
				Description:              "Initial deposit",
				TransactionDate:          account.CreatedAt,
				BalanceAfterTransaction:  p.InitialDeposit,
			}
		}

		err := s.store.CreateAccount(ctx, account, opening)
		if err == nil {
			slog.Info("Account created", "account", account.AccountNumber, "owner", account.OwnerID, "type", account.AccountType)
			return account, nil
		}
		if errors.Is(err, domain.ErrDuplicateAccountNumber) && attempt < maxNumberAttempts {
			slog.Warn("Account number collision, regenerating", "attempt", attempt)
			continue
		}
		return nil, fmt.Errorf("creating account: %w", err)
	}
}

// buildAccount is the pure defaulting step: requested fields in, fully
// populated account out. Defaults are fixed here at creation time, never
// re-derived later.
func (s *AccountService) buildAccount(p CreateAccountParams) *domain.Account {
	now := s.clock.Now()
	account := &domain.Account{
		ID:            uuid.New(),
		AccountNumber: s.ids.AccountNumber(p.AccountType),
		OwnerID:       p.OwnerID,
		AccountType:   p.AccountType,
		Balance:       p.InitialDeposit,
		Currency:      p.Currency,
		Active:        true,

		DailyTransactionLimit: p.DailyTransactionLimit,
		DailyWithdrawalLimit:  p.DailyWithdrawalLimit,
		InterestRate:          p.InterestRate,
		OverdraftLimit:        p.OverdraftLimit,
		MinimumBalance:        p.MinimumBalance,

		CreatedAt: now,
		UpdatedAt: now,
	}

	switch p.AccountType {
	case domain.Savings:
		if account.InterestRate == nil {
			rate := 0.01
			account.InterestRate = &rate
		}
		if account.MinimumBalance == nil {
			account.MinimumBalance = domain.DecimalPtr(decimal.RequireFromString("100.00"))
		}
		if account.DailyWithdrawalLimit == nil {
			account.DailyWithdrawalLimit = domain.DecimalPtr(decimal.RequireFromString("1000.00"))
		}
	case domain.Checking:
		if account.OverdraftLimit == nil {
			account.OverdraftLimit = domain.DecimalPtr(decimal.RequireFromString("500.00"))
		}
		if account.DailyWithdrawalLimit == nil {
			account.DailyWithdrawalLimit = domain.DecimalPtr(decimal.RequireFromString("2000.00"))
		}
	}
	if account.DailyTransactionLimit == nil {
		account.DailyTransactionLimit = domain.DecimalPtr(decimal.RequireFromString("5000.00"))
	}
	return account
}

// UpdateStatus flips the active flag. No balance or transaction side effects.
func (s *AccountService) UpdateStatus(ctx context.Context, accountNumber string, active bool) (*domain.Account, error) {
	for attempt := 1; ; attempt++ {
		account, err := s.store.GetAccountByNumber(ctx, accountNumber)
		if err != nil {
			return nil, err
		}
		account.Active = active
		account.UpdatedAt = s.clock.Now()

		err = s.store.UpdateAccount(ctx, account)
		if err == nil {
			slog.Info("Account status updated", "account", accountNumber, "active", active)
			return account, nil
		}
		if errors.Is(err, domain.ErrConcurrentModification) && attempt < maxCommitAttempts {
			continue
		}
		return nil, fmt.Errorf("updating account status: %w", err)
	}
}

// GetAccountByNumber is the single-account read path.
func (s *AccountService) GetAccountByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	return s.store.GetAccountByNumber(ctx, accountNumber)
}

// GetAccountsByOwner lists every account held by an owner.
func (s *AccountService) GetAccountsByOwner(ctx context.Context, ownerID string) ([]domain.Account, error) {
	return s.store.GetAccountsByOwner(ctx, ownerID)
}

// GetAccountsByOwnerPaged is the paginated owner read.
func (s *AccountService) GetAccountsByOwnerPaged(ctx context.Context, ownerID string, req domain.PageRequest) (*domain.Page[domain.Account], error) {
	return s.store.GetAccountsByOwnerPaged(ctx, ownerID, req)
}

// TotalBalanceByOwner sums the balances of all the owner's accounts.
func (s *AccountService) TotalBalanceByOwner(ctx context.Context, ownerID string) (decimal.Decimal, error) {
	accounts, err := s.store.GetAccountsByOwner(ctx, ownerID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total, nil
}

// CountAccountsByOwner returns the owner's account count.
func (s *AccountService) CountAccountsByOwner(ctx context.Context, ownerID string) (int64, error) {
	return s.store.CountAccountsByOwner(ctx, ownerID)
}

// AccountBelongsTo is the ownership predicate exposed to the authorization
// layer. Unknown accounts report false rather than an error.
func (s *AccountService) AccountBelongsTo(ctx context.Context, accountNumber, ownerID string) (bool, error) {
	account, err := s.store.GetAccountByNumber(ctx, accountNumber)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return account.OwnerID == ownerID, nil
}
