package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shivam-0510/Banking-app/internal/core/domain"
	"github.com/shivam-0510/Banking-app/internal/core/idgen"
)

// fakeClock lets tests pin "today" for the daily-limit windows.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type testEnv struct {
	store        Store
	clock        *fakeClock
	accounts     *AccountService
	transactions *TransactionService
}

func newTestEnv(t *testing.T, store Store) *testEnv {
	t.Helper()
	clock := newFakeClock(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))
	ids := idgen.New()
	limits := NewLimitEvaluator(store, clock)
	return &testEnv{
		store:        store,
		clock:        clock,
		accounts:     NewAccountService(store, ids, clock),
		transactions: NewTransactionService(store, ids, limits, clock),
	}
}

func (e *testEnv) createAccount(t *testing.T, p CreateAccountParams) *domain.Account {
	t.Helper()
	account, err := e.accounts.CreateAccount(context.Background(), p)
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return account
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func decPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d := dec(t, s)
	return &d
}

func wantBalance(t *testing.T, e *testEnv, accountNumber, want string) {
	t.Helper()
	account, err := e.accounts.GetAccountByNumber(context.Background(), accountNumber)
	if err != nil {
		t.Fatalf("GetAccountByNumber(%s): %v", accountNumber, err)
	}
	if !account.Balance.Equal(dec(t, want)) {
		t.Fatalf("balance of %s = %s, want %s", accountNumber, account.Balance, want)
	}
}
