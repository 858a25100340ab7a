package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shivam-0510/Banking-app/internal/core/domain"
)

// MemoryStore is a thread-safe in-memory implementation of service.Store,
// with the same atomicity and versioning semantics as the Postgres store.
// Used by the service tests and for running without a database.
type MemoryStore struct {
	mu           sync.Mutex
	accounts     map[uuid.UUID]*domain.Account
	byNumber     map[string]uuid.UUID
	transactions []domain.Transaction
	byTxnID      map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[uuid.UUID]*domain.Account),
		byNumber: make(map[string]uuid.UUID),
		byTxnID:  make(map[string]int),
	}
}

func (s *MemoryStore) CreateAccount(_ context.Context, account *domain.Account, initialDeposit *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byNumber[account.AccountNumber]; exists {
		return fmt.Errorf("account number %s: %w", account.AccountNumber, domain.ErrDuplicateAccountNumber)
	}
	s.accounts[account.ID] = cloneAccount(account)
	s.byNumber[account.AccountNumber] = account.ID
	if initialDeposit != nil {
		s.appendTransaction(*initialDeposit)
	}
	return nil
}

func (s *MemoryStore) GetAccountByNumber(_ context.Context, accountNumber string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byNumber[accountNumber]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountNumber, domain.ErrAccountNotFound)
	}
	return cloneAccount(s.accounts[id]), nil
}

func (s *MemoryStore) GetAccountsByOwner(_ context.Context, ownerID string) ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ownerAccountsLocked(ownerID), nil
}

func (s *MemoryStore) GetAccountsByOwnerPaged(_ context.Context, ownerID string, req domain.PageRequest) (*domain.Page[domain.Account], error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := s.ownerAccountsLocked(ownerID)
	sortAccounts(accounts, req)
	total := int64(len(accounts))
	return domain.NewPage(slicePage(accounts, req), req, total), nil
}

func (s *MemoryStore) CountAccountsByOwner(_ context.Context, ownerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.ownerAccountsLocked(ownerID))), nil
}

func (s *MemoryStore) UpdateAccount(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.accounts[account.ID]
	if !ok {
		return fmt.Errorf("account %s: %w", account.AccountNumber, domain.ErrAccountNotFound)
	}
	if current.Version != account.Version {
		return fmt.Errorf("account %s changed since read: %w", account.AccountNumber, domain.ErrConcurrentModification)
	}
	updated := cloneAccount(account)
	updated.Version++
	s.accounts[account.ID] = updated
	account.Version++
	return nil
}

func (s *MemoryStore) CommitMovement(_ context.Context, accounts []*domain.Account, txns []*domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate every version before touching anything, so a conflict on the
	// second account of a transfer cannot leave the first one mutated.
	for _, account := range accounts {
		current, ok := s.accounts[account.ID]
		if !ok {
			return fmt.Errorf("account %s: %w", account.AccountNumber, domain.ErrAccountNotFound)
		}
		if current.Version != account.Version {
			return fmt.Errorf("account %s changed since read: %w", account.AccountNumber, domain.ErrConcurrentModification)
		}
	}
	for _, account := range accounts {
		updated := cloneAccount(account)
		updated.Version++
		s.accounts[account.ID] = updated
		account.Version++
	}
	for _, txn := range txns {
		s.appendTransaction(*txn)
	}
	return nil
}

func (s *MemoryStore) GetTransactionByID(_ context.Context, transactionID string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byTxnID[transactionID]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, domain.ErrTransactionNotFound)
	}
	txn := s.transactions[idx]
	return &txn, nil
}

func (s *MemoryStore) GetTransactionsByAccount(_ context.Context, accountID uuid.UUID) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txns := s.accountTransactionsLocked(accountID)
	sort.Slice(txns, func(i, j int) bool { return txns[i].TransactionDate.After(txns[j].TransactionDate) })
	return txns, nil
}

func (s *MemoryStore) GetTransactionsByAccountPaged(_ context.Context, accountID uuid.UUID, req domain.PageRequest) (*domain.Page[domain.Transaction], error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	txns := s.accountTransactionsLocked(accountID)
	sortTransactions(txns, req)
	total := int64(len(txns))
	return domain.NewPage(slicePage(txns, req), req, total), nil
}

func (s *MemoryStore) GetTransactionsByDateRange(_ context.Context, accountID uuid.UUID, start, end time.Time) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var txns []domain.Transaction
	for _, txn := range s.transactions {
		if txn.AccountID == accountID && inWindow(txn.TransactionDate, start, end) {
			txns = append(txns, txn)
		}
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].TransactionDate.After(txns[j].TransactionDate) })
	return txns, nil
}

func (s *MemoryStore) SumAmountByTypeAndDateRange(_ context.Context, accountID uuid.UUID, t domain.TransactionType, start, end time.Time) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, txn := range s.transactions {
		if txn.AccountID == accountID && txn.Type == t && inWindow(txn.TransactionDate, start, end) {
			total = total.Add(txn.Amount)
		}
	}
	return total, nil
}

func (s *MemoryStore) appendTransaction(txn domain.Transaction) {
	s.byTxnID[txn.TransactionID] = len(s.transactions)
	s.transactions = append(s.transactions, txn)
}

func (s *MemoryStore) ownerAccountsLocked(ownerID string) []domain.Account {
	var accounts []domain.Account
	for _, account := range s.accounts {
		if account.OwnerID == ownerID {
			accounts = append(accounts, *cloneAccount(account))
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].CreatedAt.Before(accounts[j].CreatedAt) })
	return accounts
}

func (s *MemoryStore) accountTransactionsLocked(accountID uuid.UUID) []domain.Transaction {
	var txns []domain.Transaction
	for _, txn := range s.transactions {
		if txn.AccountID == accountID {
			txns = append(txns, txn)
		}
	}
	return txns
}

// inWindow matches the store contract: start inclusive, end exclusive.
func inWindow(ts, start, end time.Time) bool {
	return !ts.Before(start) && ts.Before(end)
}

func sortAccounts(accounts []domain.Account, req domain.PageRequest) {
	less := func(i, j int) bool { return accounts[i].CreatedAt.Before(accounts[j].CreatedAt) }
	switch req.SortBy {
	case "balance":
		less = func(i, j int) bool { return accounts[i].Balance.LessThan(accounts[j].Balance) }
	case "account_number", "accountNumber":
		less = func(i, j int) bool { return accounts[i].AccountNumber < accounts[j].AccountNumber }
	}
	if req.Direction == "desc" || req.Direction == "DESC" {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(accounts, less)
}

func sortTransactions(txns []domain.Transaction, req domain.PageRequest) {
	less := func(i, j int) bool { return txns[i].TransactionDate.Before(txns[j].TransactionDate) }
	if req.SortBy == "amount" {
		less = func(i, j int) bool { return txns[i].Amount.LessThan(txns[j].Amount) }
	}
	if req.Direction == "desc" || req.Direction == "DESC" {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(txns, less)
}

func slicePage[T any](items []T, req domain.PageRequest) []T {
	start := req.Page * req.Size
	if start >= len(items) {
		return nil
	}
	end := start + req.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func cloneAccount(a *domain.Account) *domain.Account {
	clone := *a
	clone.DailyTransactionLimit = copyDecimal(a.DailyTransactionLimit)
	clone.DailyWithdrawalLimit = copyDecimal(a.DailyWithdrawalLimit)
	clone.OverdraftLimit = copyDecimal(a.OverdraftLimit)
	clone.MinimumBalance = copyDecimal(a.MinimumBalance)
	if a.InterestRate != nil {
		rate := *a.InterestRate
		clone.InterestRate = &rate
	}
	return &clone
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
