package domain

import "errors"

var (
	// ErrAccountNotFound indicates an unknown account number or id.
	ErrAccountNotFound = errors.New("account not found")
	// ErrTransactionNotFound indicates an unknown transaction id.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrInvalidOperation covers inactive accounts, malformed input and
	// disallowed arguments such as same-account transfers.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrInsufficientBalance means the movement would push the balance
	// below the overdraft allowance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrLimitExceeded means a daily transaction or withdrawal cap would
	// be breached.
	ErrLimitExceeded = errors.New("daily limit exceeded")
	// ErrConcurrentModification is returned by the store when an account
	// changed between read and commit. The engine retries it internally.
	ErrConcurrentModification = errors.New("concurrent modification detected")
	// ErrDuplicateAccountNumber signals a generated account number collided
	// with an existing one; creation retries with a fresh number.
	ErrDuplicateAccountNumber = errors.New("account number already exists")
	// ErrStoreUnavailable wraps I/O failures from the ledger store.
	ErrStoreUnavailable = errors.New("ledger store unavailable")
)
