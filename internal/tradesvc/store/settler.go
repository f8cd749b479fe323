package store

import (
	"context"
	"errors"
	"fmt"

	arenastore "github.com/mihretdev/cardarena-services/internal/arenasvc/store"
	"github.com/mihretdev/cardarena-services/internal/tradesvc/exchange"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// SettleStore executes settlements in one transaction. Both player
// rows are locked in id order before anything moves, and every term is
// re-verified under that lock; an offer that went stale between
// confirmation and commit aborts with ErrVerifyFailed and nothing is
// transferred.
type SettleStore struct {
	db        *pgxpool.Pool
	inventory *arenastore.InventoryStore
	balances  *arenastore.BalanceStore
}

func NewSettleStore(db *pgxpool.Pool, inventory *arenastore.InventoryStore, balances *arenastore.BalanceStore) *SettleStore {
	return &SettleStore{db: db, inventory: inventory, balances: balances}
}

func (s *SettleStore) SettleExchange(ctx context.Context, set *exchange.Settlement) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	lo, hi := set.A.UserId, set.B.UserId
	if lo > hi {
		lo, hi = hi, lo
	}
	_, err = tx.Exec(ctx, `
		SELECT user_id FROM players WHERE user_id IN ($1, $2) ORDER BY user_id FOR UPDATE
	`, lo, hi)
	if err != nil {
		return fmt.Errorf("failed to lock player rows: %w", err)
	}

	for _, terms := range []exchange.PartyTerms{set.A, set.B} {
		if len(terms.CardIds) == 0 {
			continue
		}
		var held int
		err = tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM inventories WHERE user_id = $1 AND card_id = ANY($2)
		`, terms.UserId, terms.CardIds).Scan(&held)
		if err != nil {
			return fmt.Errorf("failed to verify offer of user %d: %w", terms.UserId, err)
		}
		if held != len(terms.CardIds) {
			return fmt.Errorf("%w: %s no longer holds every offered card",
				exchange.ErrVerifyFailed, terms.Name)
		}
	}

	moves := []struct {
		from, to exchange.PartyTerms
	}{
		{set.A, set.B},
		{set.B, set.A},
	}
	for _, mv := range moves {
		for _, cardId := range mv.from.CardIds {
			err := s.inventory.TransferCard(ctx, tx, mv.from.UserId, mv.to.UserId, cardId)
			if err != nil {
				if errors.Is(err, arenastore.ErrNotOwner) || errors.Is(err, arenastore.ErrAlreadyOwned) {
					return fmt.Errorf("%w: card %d cannot change hands", exchange.ErrVerifyFailed, cardId)
				}
				return err
			}
		}
		if mv.from.Coins.IsPositive() {
			err := s.balances.Debit(ctx, tx, mv.from.UserId, mv.from.Coins, "exchange", set.Ref)
			if err != nil {
				if errors.Is(err, arenastore.ErrInsufficientCoins) {
					return fmt.Errorf("%w: %s cannot cover the staked coins",
						exchange.ErrVerifyFailed, mv.from.Name)
				}
				return err
			}
			if err := s.balances.Credit(ctx, tx, mv.to.UserId, mv.from.Coins, "exchange", set.Ref); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// PoolVerifier answers offer-time checks outside the settlement
// transaction.
type PoolVerifier struct {
	inventory *arenastore.InventoryStore
	balances  *arenastore.BalanceStore
}

func NewPoolVerifier(inventory *arenastore.InventoryStore, balances *arenastore.BalanceStore) *PoolVerifier {
	return &PoolVerifier{inventory: inventory, balances: balances}
}

func (v *PoolVerifier) OwnsCard(ctx context.Context, userId, cardId int64) (bool, error) {
	return v.inventory.OwnsCard(ctx, userId, cardId)
}

func (v *PoolVerifier) Balance(ctx context.Context, userId int64) (decimal.Decimal, error) {
	return v.balances.GetBalanceByUserID(ctx, userId)
}
