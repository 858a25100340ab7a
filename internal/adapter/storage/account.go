package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/shivam-0510/Banking-app/internal/core/domain"
)

const accountColumns = `id, account_number, owner_id, account_type, balance, currency, is_active,
	daily_transaction_limit, daily_withdrawal_limit, interest_rate, overdraft_limit, minimum_balance,
	version, created_at, updated_at`

// CreateAccount inserts the account and its opening deposit (when present)
// in one transaction, so a funded account can never appear without history.
func (s *PostgresStore) CreateAccount(ctx context.Context, account *domain.Account, initialDeposit *domain.Transaction) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return storeErr("begin create account", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		account.ID, account.AccountNumber, account.OwnerID, account.AccountType,
		account.Balance, account.Currency, account.Active,
		nullDecimal(account.DailyTransactionLimit), nullDecimal(account.DailyWithdrawalLimit),
		account.InterestRate, nullDecimal(account.OverdraftLimit), nullDecimal(account.MinimumBalance),
		account.Version, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("account number %s: %w", account.AccountNumber, domain.ErrDuplicateAccountNumber)
		}
		return storeErr("insert account", err)
	}

	if initialDeposit != nil {
		if err := insertTransaction(ctx, tx, initialDeposit); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storeErr("commit create account", err)
	}
	return nil
}

func (s *PostgresStore) GetAccountByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	row := s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, accountNumber)
	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", accountNumber, domain.ErrAccountNotFound)
	}
	if err != nil {
		return nil, storeErr("query account", err)
	}
	return account, nil
}

func (s *PostgresStore) GetAccountsByOwner(ctx context.Context, ownerID string) ([]domain.Account, error) {
	rows, err := s.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE owner_id = $1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, storeErr("query accounts by owner", err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func (s *PostgresStore) GetAccountsByOwnerPaged(ctx context.Context, ownerID string, req domain.PageRequest) (*domain.Page[domain.Account], error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var total int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, storeErr("count accounts by owner", err)
	}

	query := fmt.Sprintf(`SELECT `+accountColumns+` FROM accounts WHERE owner_id = $1 ORDER BY %s %s LIMIT $2 OFFSET $3`,
		accountSortColumn(req.SortBy), sortDirection(req.Direction))
	rows, err := s.db.Query(ctx, query, ownerID, req.Size, req.Page*req.Size)
	if err != nil {
		return nil, storeErr("query accounts page", err)
	}
	defer rows.Close()

	accounts, err := collectAccounts(rows)
	if err != nil {
		return nil, err
	}
	return domain.NewPage(accounts, req, total), nil
}

func (s *PostgresStore) CountAccountsByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE owner_id = $1`, ownerID).Scan(&count); err != nil {
		return 0, storeErr("count accounts by owner", err)
	}
	return count, nil
}

// UpdateAccount persists status and timestamp changes under the same
// version check as movement commits.
func (s *PostgresStore) UpdateAccount(ctx context.Context, account *domain.Account) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE accounts SET is_active = $1, updated_at = $2, version = version + 1
		WHERE id = $3 AND version = $4`,
		account.Active, account.UpdatedAt, account.ID, account.Version,
	)
	if err != nil {
		return storeErr("update account", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %s changed since read: %w", account.AccountNumber, domain.ErrConcurrentModification)
	}
	account.Version++
	return nil
}

// Sort column whitelist; anything unknown falls back to created_at so caller
// input can never reach the SQL string.
func accountSortColumn(sortBy string) string {
	switch sortBy {
	case "balance":
		return "balance"
	case "account_number", "accountNumber":
		return "account_number"
	case "updated_at", "updatedAt":
		return "updated_at"
	default:
		return "created_at"
	}
}

func sortDirection(direction string) string {
	if direction == "desc" || direction == "DESC" {
		return "DESC"
	}
	return "ASC"
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	var txnLimit, wdLimit, odLimit, minBal decimal.NullDecimal
	err := row.Scan(
		&a.ID, &a.AccountNumber, &a.OwnerID, &a.AccountType, &a.Balance, &a.Currency, &a.Active,
		&txnLimit, &wdLimit, &a.InterestRate, &odLimit, &minBal,
		&a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.DailyTransactionLimit = fromNullDecimal(txnLimit)
	a.DailyWithdrawalLimit = fromNullDecimal(wdLimit)
	a.OverdraftLimit = fromNullDecimal(odLimit)
	a.MinimumBalance = fromNullDecimal(minBal)
	return &a, nil
}

func collectAccounts(rows pgx.Rows) ([]domain.Account, error) {
	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, storeErr("scan account", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate accounts", err)
	}
	return accounts, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func fromNullDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, err, domain.ErrStoreUnavailable)
}
