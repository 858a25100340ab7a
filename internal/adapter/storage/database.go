// Package storage provides the durable ledger store on Postgres via pgx,
// plus an in-memory implementation of the same interface for tests and
// local development.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectDB initializes the connection pool.
func ConnectDB(databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}

	// Modest pool: every movement holds a connection only for the span of
	// one read-validate-write transaction.
	config.MaxConns = 10
	config.MinConns = 0
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id                       UUID PRIMARY KEY,
	account_number           TEXT NOT NULL UNIQUE,
	owner_id                 TEXT NOT NULL,
	account_type             TEXT NOT NULL,
	balance                  NUMERIC(19,4) NOT NULL,
	currency                 TEXT NOT NULL,
	is_active                BOOLEAN NOT NULL DEFAULT TRUE,
	daily_transaction_limit  NUMERIC(19,4),
	daily_withdrawal_limit   NUMERIC(19,4),
	interest_rate            DOUBLE PRECISION,
	overdraft_limit          NUMERIC(19,4),
	minimum_balance          NUMERIC(19,4),
	version                  BIGINT NOT NULL DEFAULT 0,
	created_at               TIMESTAMPTZ NOT NULL,
	updated_at               TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_owner ON accounts (owner_id);

CREATE TABLE IF NOT EXISTS transactions (
	id                         UUID PRIMARY KEY,
	transaction_id             TEXT NOT NULL UNIQUE,
	account_id                 UUID NOT NULL REFERENCES accounts (id),
	amount                     NUMERIC(19,4) NOT NULL,
	transaction_type           TEXT NOT NULL,
	status                     TEXT NOT NULL,
	source_account_number      TEXT,
	destination_account_number TEXT,
	reference_number           TEXT,
	description                TEXT NOT NULL DEFAULT '',
	transaction_date           TIMESTAMPTZ NOT NULL,
	balance_after_transaction  NUMERIC(19,4) NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_account_date
	ON transactions (account_id, transaction_date);

CREATE TABLE IF NOT EXISTS idempotency_keys (
	key_id          TEXT PRIMARY KEY,
	response_status INT NOT NULL,
	response_body   BYTEA NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// PostgresStore implements service.Store on a pgx pool. Account methods live
// in account.go, movement and transaction methods in ledger.go.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}
