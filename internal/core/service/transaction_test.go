package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shivam-0510/Banking-app/internal/adapter/storage"
	"github.com/shivam-0510/Banking-app/internal/core/domain"
)

func TestDeposit(t *testing.T) {
	e := newTestEnv(t, storage.NewMemoryStore())
	ctx := context.Background()

	account := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-1", AccountType: domain.Checking, Currency: "USD", InitialDeposit: dec(t, "100.00"),
	})

	txn, err := e.transactions.Deposit(ctx, MovementParams{
		AccountNumber: account.AccountNumber, Amount: dec(t, "25.50"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if txn.Type != domain.Deposit || txn.Status != domain.StatusCompleted {
		t.Errorf("transaction = %s/%s, want DEPOSIT/COMPLETED", txn.Type, txn.Status)
	}
	if !txn.BalanceAfterTransaction.Equal(dec(t, "125.50")) {
		t.Errorf("balance after = %s, want 125.50", txn.BalanceAfterTransaction)
	}
	if txn.Description != "Deposit" {
		t.Errorf("default description = %q, want \"Deposit\"", txn.Description)
	}
	wantBalance(t, e, account.AccountNumber, "125.50")
}

func TestWithdrawOverdraftArithmetic(t *testing.T) {
	e := newTestEnv(t, storage.NewMemoryStore())
	ctx := context.Background()

	// CHECKING: balance 100.00, default overdraft 500.00.
	account := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-1", AccountType: domain.Checking, Currency: "USD", InitialDeposit: dec(t, "100.00"),
	})

	_, err := e.transactions.Withdraw(ctx, MovementParams{
		AccountNumber: account.AccountNumber, Amount: dec(t, "600.01"),
	})
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("withdrawal of 600.01 should fail with ErrInsufficientBalance, got %v", err)
	}
	wantBalance(t, e, account.AccountNumber, "100.00")

	txn, err := e.transactions.Withdraw(ctx, MovementParams{
		AccountNumber: account.AccountNumber, Amount: dec(t, "600.00"),
	})
	if err != nil {
		t.Fatalf("withdrawal of exactly balance+overdraft should succeed, got %v", err)
	}
	if !txn.BalanceAfterTransaction.Equal(dec(t, "-500.00")) {
		t.Errorf("balance after = %s, want -500.00", txn.BalanceAfterTransaction)
	}
	wantBalance(t, e, account.AccountNumber, "-500.00")
}

func TestMovementsRejectBadAmounts(t *testing.T) {
	e := newTestEnv(t, storage.NewMemoryStore())
	ctx := context.Background()

	account := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-1", AccountType: domain.Checking, Currency: "USD", InitialDeposit: dec(t, "100.00"),
	})

	for _, amount := range []string{"0", "-5.00"} {
		if _, err := e.transactions.Deposit(ctx, MovementParams{
			AccountNumber: account.AccountNumber, Amount: dec(t, amount),
		}); !errors.Is(err, domain.ErrInvalidOperation) {
			t.Errorf("deposit of %s: want ErrInvalidOperation, got %v", amount, err)
		}
		if _, err := e.transactions.Withdraw(ctx, MovementParams{
			AccountNumber: account.AccountNumber, Amount: dec(t, amount),
		}); !errors.Is(err, domain.ErrInvalidOperation) {
			t.Errorf("withdrawal of %s: want ErrInvalidOperation, got %v", amount, err)
		}
	}
	wantBalance(t, e, account.AccountNumber, "100.00")
}

func TestInactiveAccountRejectsAllMovements(t *testing.T) {
	e := newTestEnv(t, storage.NewMemoryStore())
	ctx := context.Background()

	frozen := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-1", AccountType: domain.Checking, Currency: "USD", InitialDeposit: dec(t, "100.00"),
	})
	other := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-2", AccountType: domain.Checking, Currency: "USD", InitialDeposit: dec(t, "100.00"),
	})
	if _, err := e.accounts.UpdateStatus(ctx, frozen.AccountNumber, false); err != nil {
		t.Fatal(err)
	}

	if _, err := e.transactions.Deposit(ctx, MovementParams{
		AccountNumber: frozen.AccountNumber, Amount: dec(t, "10.00"),
	}); !errors.Is(err, domain.ErrInvalidOperation) {
		t.Errorf("deposit to inactive: want ErrInvalidOperation, got %v", err)
	}
	if _, err := e.transactions.Withdraw(ctx, MovementParams{
		AccountNumber: frozen.AccountNumber, Amount: dec(t, "10.00"),
	}); !errors.Is(err, domain.ErrInvalidOperation) {
		t.Errorf("withdrawal from inactive: want ErrInvalidOperation, got %v", err)
	}
	if _, err := e.transactions.Transfer(ctx, TransferParams{
		SourceAccountNumber:      other.AccountNumber,
		DestinationAccountNumber: frozen.AccountNumber,
		Amount:                   dec(t, "10.00"),
	}); !errors.Is(err, domain.ErrInvalidOperation) {
		t.Errorf("transfer to inactive: want ErrInvalidOperation, got %v", err)
	}

	wantBalance(t, e, frozen.AccountNumber, "100.00")
	wantBalance(t, e, other.AccountNumber, "100.00")
}

func TestTransferPairing(t *testing.T) {
	e := newTestEnv(t, storage.NewMemoryStore())
	ctx := context.Background()

	source := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-1", AccountType: domain.Checking, Currency: "USD", InitialDeposit: dec(t, "500.00"),
	})
	destination := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-2", AccountType: domain.Savings, Currency: "USD", InitialDeposit: dec(t, "100.00"),
	})

	sourceLeg, err := e.transactions.Transfer(ctx, TransferParams{
		SourceAccountNumber:      source.AccountNumber,
		DestinationAccountNumber: destination.AccountNumber,
		Amount:                   dec(t, "200.00"),
	})
	if err != nil {
		t.Fatal(err)
	}

	if sourceLeg.Type != domain.Transfer {
		t.Errorf("source leg type = %s, want TRANSFER", sourceLeg.Type)
	}
	if !sourceLeg.BalanceAfterTransaction.Equal(dec(t, "300.00")) {
		t.Errorf("source balance after = %s, want 300.00", sourceLeg.BalanceAfterTransaction)
	}
	if sourceLeg.ReferenceNumber == "" {
		t.Fatal("transfer should generate a shared reference number")
	}

	destTxns, err := e.transactions.GetTransactionsByAccountNumber(ctx, destination.AccountNumber)
	if err != nil {
		t.Fatal(err)
	}
	var destLeg *domain.Transaction
	for i := range destTxns {
		if destTxns[i].ReferenceNumber == sourceLeg.ReferenceNumber {
			destLeg = &destTxns[i]
		}
	}
	if destLeg == nil {
		t.Fatal("destination leg with shared reference number not found")
	}
	if destLeg.Type != domain.Deposit {
		t.Errorf("destination leg type = %s, want DEPOSIT", destLeg.Type)
	}
	if !destLeg.Amount.Equal(sourceLeg.Amount) {
		t.Errorf("leg amounts differ: %s vs %s", destLeg.Amount, sourceLeg.Amount)
	}
	if !destLeg.BalanceAfterTransaction.Equal(dec(t, "300.00")) {
		t.Errorf("destination balance after = %s, want 300.00", destLeg.BalanceAfterTransaction)
	}
	if destLeg.TransactionID == sourceLeg.TransactionID {
		t.Error("legs must have distinct transaction ids")
	}
	if destLeg.SourceAccountNumber != source.AccountNumber ||
		destLeg.DestinationAccountNumber != destination.AccountNumber {
		t.Error("destination leg should carry both account numbers for traceability")
	}

	wantBalance(t, e, source.AccountNumber, "300.00")
	wantBalance(t, e, destination.AccountNumber, "300.00")
}

func TestTransferAtomicityOnFailure(t *testing.T) {
	e := newTestEnv(t, storage.NewMemoryStore())
	ctx := context.Background()

	source := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-1", AccountType: domain.Investment, Currency: "USD", InitialDeposit: dec(t, "50.00"),
	})
	destination := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-2", AccountType: domain.Investment, Currency: "USD", InitialDeposit: dec(t, "50.00"),
	})

	_, err := e.transactions.Transfer(ctx, TransferParams{
		SourceAccountNumber:      source.AccountNumber,
		DestinationAccountNumber: destination.AccountNumber,
		Amount:                   dec(t, "100.00"),
	})
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("want ErrInsufficientBalance, got %v", err)
	}

	wantBalance(t, e, source.AccountNumber, "50.00")
	wantBalance(t, e, destination.AccountNumber, "50.00")

	for _, number := range []string{source.AccountNumber, destination.AccountNumber} {
		txns, err := e.transactions.GetTransactionsByAccountNumber(ctx, number)
		if err != nil {
			t.Fatal(err)
		}
		if len(txns) != 1 { // only the opening deposit
			t.Errorf("account %s has %d transactions after failed transfer, want 1", number, len(txns))
		}
	}
}

func TestTransferToSameAccountRejected(t *testing.T) {
	e := newTestEnv(t, storage.NewMemoryStore())

	account := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-1", AccountType: domain.Checking, Currency: "USD", InitialDeposit: dec(t, "100.00"),
	})

	_, err := e.transactions.Transfer(context.Background(), TransferParams{
		SourceAccountNumber:      account.AccountNumber,
		DestinationAccountNumber: account.AccountNumber,
		Amount:                   dec(t, "10.00"),
	})
	if !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("same-account transfer: want ErrInvalidOperation, got %v", err)
	}
	wantBalance(t, e, account.AccountNumber, "100.00")
}

func TestTransferCallerReference(t *testing.T) {
	e := newTestEnv(t, storage.NewMemoryStore())

	source := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-1", AccountType: domain.Checking, Currency: "USD", InitialDeposit: dec(t, "100.00"),
	})
	destination := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-2", AccountType: domain.Checking, Currency: "USD",
	})

	txn, err := e.transactions.Transfer(context.Background(), TransferParams{
		SourceAccountNumber:      source.AccountNumber,
		DestinationAccountNumber: destination.AccountNumber,
		Amount:                   dec(t, "10.00"),
		ReferenceNumber:          "REF-CALLER-42",
	})
	if err != nil {
		t.Fatal(err)
	}
	if txn.ReferenceNumber != "REF-CALLER-42" {
		t.Errorf("reference = %q, want caller-supplied REF-CALLER-42", txn.ReferenceNumber)
	}
}

func TestBalanceConservation(t *testing.T) {
	e := newTestEnv(t, storage.NewMemoryStore())
	ctx := context.Background()

	a := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-1", AccountType: domain.Investment, Currency: "USD", InitialDeposit: dec(t, "1000.00"),
	})
	b := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-1", AccountType: domain.Investment, Currency: "USD", InitialDeposit: dec(t, "1000.00"),
	})

	// Transfers are zero-sum across the pair.
	for i := 0; i < 5; i++ {
		if _, err := e.transactions.Transfer(ctx, TransferParams{
			SourceAccountNumber:      a.AccountNumber,
			DestinationAccountNumber: b.AccountNumber,
			Amount:                   dec(t, "100.00"),
		}); err != nil {
			t.Fatal(err)
		}
	}
	// One external deposit and one external withdrawal.
	if _, err := e.transactions.Deposit(ctx, MovementParams{
		AccountNumber: a.AccountNumber, Amount: dec(t, "300.00"),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.transactions.Withdraw(ctx, MovementParams{
		AccountNumber: b.AccountNumber, Amount: dec(t, "50.00"),
	}); err != nil {
		t.Fatal(err)
	}

	total, err := e.accounts.TotalBalanceByOwner(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	// 2000 opening + 300 deposited - 50 withdrawn; transfers net to zero.
	if !total.Equal(dec(t, "2250.00")) {
		t.Errorf("total balance = %s, want 2250.00", total)
	}
}

// Concurrent withdrawals against one account must never oversell the
// balance: exactly floor(B/A) succeed, the rest fail with
// ErrInsufficientBalance, and the final balance is B - floor(B/A)*A.
func TestConcurrentWithdrawals(t *testing.T) {
	e := newTestEnv(t, storage.NewMemoryStore())
	ctx := context.Background()

	account := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-1", AccountType: domain.Investment, Currency: "USD", InitialDeposit: dec(t, "1000.00"),
	})

	const workers = 10
	amount := dec(t, "300.00")

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.transactions.Withdraw(ctx, MovementParams{
				AccountNumber: account.AccountNumber, Amount: amount,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, insufficient int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientBalance):
			insufficient++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if ok != 3 { // floor(1000/300)
		t.Errorf("%d withdrawals succeeded, want exactly 3", ok)
	}
	if insufficient != workers-3 {
		t.Errorf("%d withdrawals failed with insufficient balance, want %d", insufficient, workers-3)
	}
	wantBalance(t, e, account.AccountNumber, "100.00")
}

// Concurrent opposing transfers between the same pair must neither deadlock
// nor lose an update.
func TestConcurrentOpposingTransfers(t *testing.T) {
	e := newTestEnv(t, storage.NewMemoryStore())
	ctx := context.Background()

	a := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-1", AccountType: domain.Investment, Currency: "USD", InitialDeposit: dec(t, "1000.00"),
	})
	b := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-1", AccountType: domain.Investment, Currency: "USD", InitialDeposit: dec(t, "1000.00"),
	})

	const rounds = 4
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			e.transactions.Transfer(ctx, TransferParams{
				SourceAccountNumber: a.AccountNumber, DestinationAccountNumber: b.AccountNumber,
				Amount: dec(t, "10.00"),
			})
		}()
		go func() {
			defer wg.Done()
			e.transactions.Transfer(ctx, TransferParams{
				SourceAccountNumber: b.AccountNumber, DestinationAccountNumber: a.AccountNumber,
				Amount: dec(t, "10.00"),
			})
		}()
	}
	wg.Wait()

	total, err := e.accounts.TotalBalanceByOwner(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if !total.Equal(dec(t, "2000.00")) {
		t.Errorf("total balance = %s, want 2000.00 (transfers are zero-sum)", total)
	}
}

func TestRetryRecoversFromConflicts(t *testing.T) {
	mem := storage.NewMemoryStore()
	conflicting := &conflictStore{Store: mem, failures: 2}
	e := newTestEnv(t, conflicting)
	ctx := context.Background()

	account := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-1", AccountType: domain.Checking, Currency: "USD", InitialDeposit: dec(t, "100.00"),
	})

	conflicting.arm()
	if _, err := e.transactions.Deposit(ctx, MovementParams{
		AccountNumber: account.AccountNumber, Amount: dec(t, "10.00"),
	}); err != nil {
		t.Fatalf("deposit should recover from transient conflicts, got %v", err)
	}
	wantBalance(t, e, account.AccountNumber, "110.00")
}

func TestRetriesExhaust(t *testing.T) {
	mem := storage.NewMemoryStore()
	conflicting := &conflictStore{Store: mem, failures: maxCommitAttempts + 1}
	e := newTestEnv(t, conflicting)
	ctx := context.Background()

	account := e.createAccount(t, CreateAccountParams{
		OwnerID: "user-1", AccountType: domain.Checking, Currency: "USD", InitialDeposit: dec(t, "100.00"),
	})

	conflicting.arm()
	_, err := e.transactions.Deposit(ctx, MovementParams{
		AccountNumber: account.AccountNumber, Amount: dec(t, "10.00"),
	})
	if !errors.Is(err, domain.ErrConcurrentModification) {
		t.Fatalf("exhausted retries should surface the conflict, got %v", err)
	}
	wantBalance(t, e, account.AccountNumber, "100.00")
}

// conflictStore wraps a Store and, once armed, fails the next N movement
// commits with a version conflict.
type conflictStore struct {
	Store
	mu       sync.Mutex
	armed    bool
	failures int
}

func (s *conflictStore) arm() {
	s.mu.Lock()
	s.armed = true
	s.mu.Unlock()
}

func (s *conflictStore) CommitMovement(ctx context.Context, accounts []*domain.Account, txns []*domain.Transaction) error {
	s.mu.Lock()
	if s.armed && s.failures > 0 {
		s.failures--
		s.mu.Unlock()
		return domain.ErrConcurrentModification
	}
	s.mu.Unlock()
	return s.Store.CommitMovement(ctx, accounts, txns)
}
