package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// BalanceStore keeps coins as a dr/cr ledger; a player's balance is
// the completed debits minus credits.
type BalanceStore struct {
	db *pgxpool.Pool
}

func NewBalanceStore(db *pgxpool.Pool) *BalanceStore {
	return &BalanceStore{db: db}
}

func (c *BalanceStore) GetBalanceByUserID(ctx context.Context, userId int64) (decimal.Decimal, error) {
	var totalDr, totalCr decimal.Decimal

	err := c.db.QueryRow(ctx, `
        SELECT
            COALESCE(SUM(dr), 0),
            COALESCE(SUM(cr), 0)
        FROM balances
        WHERE user_id = $1 AND status = 'completed'
    `, userId).Scan(&totalDr, &totalCr)

	if err != nil {
		return decimal.Zero, err
	}

	balance := totalDr.Sub(totalCr)
	return balance, nil
}

// Credit inserts a debit-side ledger row (coins in) within tx.
func (c *BalanceStore) Credit(ctx context.Context, tx pgx.Tx, userId int64, amount decimal.Decimal, ttype, tref string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO balances (user_id, ttype, dr, cr, tref, status)
		VALUES ($1, $2, $3, 0, $4, 'completed')
	`, userId, ttype, amount, tref)
	if err != nil {
		return fmt.Errorf("failed to credit user %d: %w", userId, err)
	}
	return nil
}

// Debit inserts a credit-side ledger row (coins out) within tx after
// re-checking the balance inside the same transaction. Callers that
// need exclusion across concurrent spends should lock the player row
// first.
func (c *BalanceStore) Debit(ctx context.Context, tx pgx.Tx, userId int64, amount decimal.Decimal, ttype, tref string) error {
	var totalDr, totalCr decimal.Decimal
	err := tx.QueryRow(ctx, `
        SELECT COALESCE(SUM(dr), 0), COALESCE(SUM(cr), 0)
        FROM balances
        WHERE user_id = $1 AND status = 'completed'
    `, userId).Scan(&totalDr, &totalCr)
	if err != nil {
		return fmt.Errorf("failed to read balance for user %d: %w", userId, err)
	}

	if totalDr.Sub(totalCr).LessThan(amount) {
		return ErrInsufficientCoins
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO balances (user_id, ttype, dr, cr, tref, status)
		VALUES ($1, $2, 0, $3, $4, 'completed')
	`, userId, ttype, amount, tref)
	if err != nil {
		return fmt.Errorf("failed to debit user %d: %w", userId, err)
	}
	return nil
}
