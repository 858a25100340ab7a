package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shivam-0510/Banking-app/internal/adapter/storage"
	"github.com/shivam-0510/Banking-app/internal/core/domain"
)

func TestDailyTransactionLimitBoundary(t *testing.T) {
	e := newTestEnv(t, storage.NewMemoryStore())
	ctx := context.Background()

	// Investment accounts get only the 5000.00 transaction-limit default.
	account := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-1", AccountType: domain.Investment, Currency: "USD",
	})

	// Strictly over the cap is denied.
	_, err := e.transactions.Deposit(ctx, MovementParams{
		AccountNumber: account.AccountNumber, Amount: dec(t, "5000.01"),
	})
	if !errors.Is(err, domain.ErrLimitExceeded) {
		t.Fatalf("deposit of 5000.01 should exceed limit, got %v", err)
	}

	// Exactly the cap is allowed.
	if _, err := e.transactions.Deposit(ctx, MovementParams{
		AccountNumber: account.AccountNumber, Amount: dec(t, "5000.00"),
	}); err != nil {
		t.Fatalf("deposit of exactly 5000.00 should be allowed, got %v", err)
	}

	// The day's budget is now spent; any further deposit is denied.
	_, err = e.transactions.Deposit(ctx, MovementParams{
		AccountNumber: account.AccountNumber, Amount: dec(t, "0.01"),
	})
	if !errors.Is(err, domain.ErrLimitExceeded) {
		t.Fatalf("any further deposit today should be denied, got %v", err)
	}
}

func TestDailyWithdrawalLimitCombinesWithdrawalsAndTransfers(t *testing.T) {
	e := newTestEnv(t, storage.NewMemoryStore())
	ctx := context.Background()

	source := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-1", AccountType: domain.Investment, Currency: "USD",
		InitialDeposit:       dec(t, "3000.00"),
		DailyWithdrawalLimit: decPtr(t, "1000.00"),
	})
	destination := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-2", AccountType: domain.Investment, Currency: "USD",
	})

	if _, err := e.transactions.Withdraw(ctx, MovementParams{
		AccountNumber: source.AccountNumber, Amount: dec(t, "400.00"),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.transactions.Transfer(ctx, TransferParams{
		SourceAccountNumber:      source.AccountNumber,
		DestinationAccountNumber: destination.AccountNumber,
		Amount:                   dec(t, "500.00"),
	}); err != nil {
		t.Fatal(err)
	}

	// 400 withdrawn + 500 transferred out; another 200 breaches the 1000 cap.
	_, err := e.transactions.Withdraw(ctx, MovementParams{
		AccountNumber: source.AccountNumber, Amount: dec(t, "200.00"),
	})
	if !errors.Is(err, domain.ErrLimitExceeded) {
		t.Fatalf("combined withdrawals should exceed the daily cap, got %v", err)
	}

	// Exactly reaching the cap is still fine.
	if _, err := e.transactions.Withdraw(ctx, MovementParams{
		AccountNumber: source.AccountNumber, Amount: dec(t, "100.00"),
	}); err != nil {
		t.Fatalf("withdrawal up to the cap should be allowed, got %v", err)
	}
}

func TestNoConfiguredLimitAlwaysAllows(t *testing.T) {
	store := storage.NewMemoryStore()
	e := newTestEnv(t, store)
	ctx := context.Background()

	account := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-1", AccountType: domain.Investment, Currency: "USD",
	})
	// Strip the transaction-limit default to simulate "unset".
	raw, err := store.GetAccountByNumber(ctx, account.AccountNumber)
	if err != nil {
		t.Fatal(err)
	}
	raw.DailyTransactionLimit = nil

	limits := NewLimitEvaluator(store, e.clock)
	if err := limits.CheckDailyTransactionLimit(ctx, raw, dec(t, "1000000.00"), domain.Deposit); err != nil {
		t.Fatalf("nil limit should always allow, got %v", err)
	}
	raw.DailyWithdrawalLimit = nil
	if err := limits.CheckDailyWithdrawalLimit(ctx, raw, dec(t, "1000000.00")); err != nil {
		t.Fatalf("nil withdrawal limit should always allow, got %v", err)
	}
}

func TestLimitWindowResetsAtMidnight(t *testing.T) {
	e := newTestEnv(t, storage.NewMemoryStore())
	ctx := context.Background()

	account := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-1", AccountType: domain.Investment, Currency: "USD",
	})

	// Spend most of the day's budget.
	if _, err := e.transactions.Deposit(ctx, MovementParams{
		AccountNumber: account.AccountNumber, Amount: dec(t, "4000.00"),
	}); err != nil {
		t.Fatal(err)
	}
	_, err := e.transactions.Deposit(ctx, MovementParams{
		AccountNumber: account.AccountNumber, Amount: dec(t, "1500.00"),
	})
	if !errors.Is(err, domain.ErrLimitExceeded) {
		t.Fatalf("second deposit should breach today's cap, got %v", err)
	}

	// Exactly at the next midnight the window is fresh.
	midnight := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	e.clock.Set(midnight)
	if _, err := e.transactions.Deposit(ctx, MovementParams{
		AccountNumber: account.AccountNumber, Amount: dec(t, "1500.00"),
	}); err != nil {
		t.Fatalf("deposit after midnight should be allowed, got %v", err)
	}

	// And the midnight-stamped deposit counts toward the new day.
	e.clock.Set(midnight.Add(time.Hour))
	_, err = e.transactions.Deposit(ctx, MovementParams{
		AccountNumber: account.AccountNumber, Amount: dec(t, "4000.00"),
	})
	if !errors.Is(err, domain.ErrLimitExceeded) {
		t.Fatalf("midnight deposit should count for the new day, got %v", err)
	}
}

func TestDayWindow(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	now := time.Date(2025, 6, 15, 13, 45, 12, 0, loc)

	start, end := dayWindow(now)
	if !start.Equal(time.Date(2025, 6, 15, 0, 0, 0, 0, loc)) {
		t.Errorf("start = %v, want local midnight", start)
	}
	if !end.Equal(time.Date(2025, 6, 16, 0, 0, 0, 0, loc)) {
		t.Errorf("end = %v, want next local midnight", end)
	}
	if sub := end.Sub(start); sub != 24*time.Hour {
		t.Errorf("window length = %v, want 24h", sub)
	}
}

func TestLimitCheckUsesZeroForEmptyDay(t *testing.T) {
	store := storage.NewMemoryStore()
	e := newTestEnv(t, store)
	ctx := context.Background()

	account := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-1", AccountType: domain.Investment, Currency: "USD",
	})

	start, end := dayWindow(e.clock.Now())
	total, err := store.SumAmountByTypeAndDateRange(ctx, account.ID, domain.Deposit, start, end)
	if err != nil {
		t.Fatal(err)
	}
	if !total.Equal(decimal.Zero) {
		t.Errorf("empty day total = %s, want 0", total)
	}
}
