package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/shivam-0510/Banking-app/internal/core/domain"
)

const transactionColumns = `id, transaction_id, account_id, amount, transaction_type, status,
	COALESCE(source_account_number, ''), COALESCE(destination_account_number, ''),
	COALESCE(reference_number, ''), description, transaction_date, balance_after_transaction`

// CommitMovement is the only write path for money movement: all balance
// mutations and their ledger rows land in one SQL transaction. Accounts are
// updated in ascending id order so two opposing transfers between the same
// pair cannot deadlock, and every update carries the version read by the
// caller; a missed update aborts the whole commit.
func (s *PostgresStore) CommitMovement(ctx context.Context, accounts []*domain.Account, txns []*domain.Transaction) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return storeErr("begin movement", err)
	}
	defer tx.Rollback(ctx)

	ordered := make([]*domain.Account, len(accounts))
	copy(ordered, accounts)
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i].ID[:], ordered[j].ID[:]) < 0
	})

	for _, account := range ordered {
		tag, err := tx.Exec(ctx, `
			UPDATE accounts SET balance = $1, updated_at = $2, version = version + 1
			WHERE id = $3 AND version = $4`,
			account.Balance, account.UpdatedAt, account.ID, account.Version,
		)
		if err != nil {
			return storeErr("update balance", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("account %s changed since read: %w", account.AccountNumber, domain.ErrConcurrentModification)
		}
	}

	for _, txn := range txns {
		if err := insertTransaction(ctx, tx, txn); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storeErr("commit movement", err)
	}
	for _, account := range accounts {
		account.Version++
	}
	return nil
}

func insertTransaction(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO transactions (id, transaction_id, account_id, amount, transaction_type, status,
			source_account_number, destination_account_number, reference_number,
			description, transaction_date, balance_after_transaction)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10, $11, $12)`,
		txn.ID, txn.TransactionID, txn.AccountID, txn.Amount, txn.Type, txn.Status,
		txn.SourceAccountNumber, txn.DestinationAccountNumber, txn.ReferenceNumber,
		txn.Description, txn.TransactionDate, txn.BalanceAfterTransaction,
	)
	if err != nil {
		return storeErr("insert transaction", err)
	}
	return nil
}

func (s *PostgresStore) GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	row := s.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE transaction_id = $1`, transactionID)
	txn, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, domain.ErrTransactionNotFound)
	}
	if err != nil {
		return nil, storeErr("query transaction", err)
	}
	return txn, nil
}

func (s *PostgresStore) GetTransactionsByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = $1 ORDER BY transaction_date DESC`, accountID)
	if err != nil {
		return nil, storeErr("query transactions", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (s *PostgresStore) GetTransactionsByAccountPaged(ctx context.Context, accountID uuid.UUID, req domain.PageRequest) (*domain.Page[domain.Transaction], error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var total int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID).Scan(&total); err != nil {
		return nil, storeErr("count transactions", err)
	}

	query := fmt.Sprintf(`SELECT `+transactionColumns+` FROM transactions WHERE account_id = $1 ORDER BY %s %s LIMIT $2 OFFSET $3`,
		transactionSortColumn(req.SortBy), sortDirection(req.Direction))
	rows, err := s.db.Query(ctx, query, accountID, req.Size, req.Page*req.Size)
	if err != nil {
		return nil, storeErr("query transactions page", err)
	}
	defer rows.Close()

	txns, err := collectTransactions(rows)
	if err != nil {
		return nil, err
	}
	return domain.NewPage(txns, req, total), nil
}

func (s *PostgresStore) GetTransactionsByDateRange(ctx context.Context, accountID uuid.UUID, start, end time.Time) ([]domain.Transaction, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = $1 AND transaction_date >= $2 AND transaction_date < $3
		ORDER BY transaction_date DESC`, accountID, start, end)
	if err != nil {
		return nil, storeErr("query transactions by date range", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// SumAmountByTypeAndDateRange backs the daily-limit checks. COALESCE keeps
// the no-rows case at zero rather than NULL.
func (s *PostgresStore) SumAmountByTypeAndDateRange(ctx context.Context, accountID uuid.UUID, t domain.TransactionType, start, end time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE account_id = $1 AND transaction_type = $2
		AND transaction_date >= $3 AND transaction_date < $4`,
		accountID, t, start, end,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, storeErr("sum transactions", err)
	}
	return total, nil
}

func transactionSortColumn(sortBy string) string {
	switch sortBy {
	case "amount":
		return "amount"
	case "transaction_type", "transactionType":
		return "transaction_type"
	default:
		return "transaction_date"
	}
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(
		&t.ID, &t.TransactionID, &t.AccountID, &t.Amount, &t.Type, &t.Status,
		&t.SourceAccountNumber, &t.DestinationAccountNumber, &t.ReferenceNumber,
		&t.Description, &t.TransactionDate, &t.BalanceAfterTransaction,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, storeErr("scan transaction", err)
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate transactions", err)
	}
	return txns, nil
}
