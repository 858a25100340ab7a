package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shivam-0510/Banking-app/internal/core/domain"
)

// LimitEvaluator decides whether a proposed movement would breach the
// account's daily caps, based on the day's already-recorded totals. It is
// advisory pre-validation: the engine re-runs it on every commit attempt so
// a stale read can never smuggle a movement past a limit.
type LimitEvaluator struct {
	store Store
	clock Clock
}

func NewLimitEvaluator(store Store, clock Clock) *LimitEvaluator {
	return &LimitEvaluator{store: store, clock: clock}
}

// CheckDailyTransactionLimit allows the movement when the account has no
// configured limit, or when today's total of the same type plus the proposed
// amount stays at or under the limit. Equal is allowed.
func (e *LimitEvaluator) CheckDailyTransactionLimit(ctx context.Context, account *domain.Account, amount decimal.Decimal, t domain.TransactionType) error {
	if account.DailyTransactionLimit == nil {
		return nil
	}
	total, err := e.dailyTotal(ctx, account, t)
	if err != nil {
		return err
	}
	if total.Add(amount).GreaterThan(*account.DailyTransactionLimit) {
		return fmt.Errorf("daily transaction limit of %s would be exceeded: %w",
			account.DailyTransactionLimit, domain.ErrLimitExceeded)
	}
	return nil
}

// CheckDailyWithdrawalLimit caps the combined total of today's withdrawals
// and outgoing transfers plus the proposed amount.
func (e *LimitEvaluator) CheckDailyWithdrawalLimit(ctx context.Context, account *domain.Account, amount decimal.Decimal) error {
	if account.DailyWithdrawalLimit == nil {
		return nil
	}
	withdrawals, err := e.dailyTotal(ctx, account, domain.Withdrawal)
	if err != nil {
		return err
	}
	transfers, err := e.dailyTotal(ctx, account, domain.Transfer)
	if err != nil {
		return err
	}
	if withdrawals.Add(transfers).Add(amount).GreaterThan(*account.DailyWithdrawalLimit) {
		return fmt.Errorf("daily withdrawal limit of %s would be exceeded: %w",
			account.DailyWithdrawalLimit, domain.ErrLimitExceeded)
	}
	return nil
}

func (e *LimitEvaluator) dailyTotal(ctx context.Context, account *domain.Account, t domain.TransactionType) (decimal.Decimal, error) {
	start, end := dayWindow(e.clock.Now())
	total, err := e.store.SumAmountByTypeAndDateRange(ctx, account.ID, t, start, end)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing daily %s total: %w", t, err)
	}
	return total, nil
}

// dayWindow returns [local midnight, next local midnight). A transaction
// stamped exactly at midnight counts toward the new day.
func dayWindow(now time.Time) (time.Time, time.Time) {
	year, month, day := now.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}
