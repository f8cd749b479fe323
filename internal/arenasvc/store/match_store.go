package store

import (
	"context"
	"fmt"

	"github.com/mihretdev/cardarena-services/internal/arenasvc/battle"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// MatchStore commits battle results. Each round and each final result
// lands in its own transaction, so a crash between rounds never loses
// the rounds already played.
type MatchStore struct {
	db       *pgxpool.Pool
	balances *BalanceStore
}

func NewMatchStore(db *pgxpool.Pool, balances *BalanceStore) *MatchStore {
	return &MatchStore{db: db, balances: balances}
}

// RecordRound credits one resolved round to both players, both played
// copies and both card aggregates.
func (s *MatchStore) RecordRound(ctx context.Context, rec *battle.RoundRecord) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	sides := []struct {
		userId int64
		cardId int64
	}{
		{rec.Player1, rec.Card1Id},
		{rec.Player2, rec.Card2Id},
	}

	for _, side := range sides {
		outcome := "rounds_drawn"
		if rec.WinnerId == side.userId {
			outcome = "rounds_won"
		} else if rec.WinnerId != 0 {
			outcome = "rounds_lost"
		}

		_, err = tx.Exec(ctx, `
			UPDATE players
			SET rounds_played = rounds_played + 1, `+outcome+` = `+outcome+` + 1, updated_at = now()
			WHERE user_id = $1
		`, side.userId)
		if err != nil {
			return fmt.Errorf("failed to update round stats for player %d: %w", side.userId, err)
		}

		if err := creditRoundToCard(ctx, tx, side.userId, side.cardId, rec.WinnerId == side.userId); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func creditRoundToCard(ctx context.Context, tx pgx.Tx, userId, cardId int64, won bool) error {
	winInc := 0
	if won {
		winInc = 1
	}

	_, err := tx.Exec(ctx, `
		UPDATE inventories
		SET rounds_played = rounds_played + 1, rounds_won = rounds_won + $3, updated_at = now()
		WHERE user_id = $1 AND card_id = $2
	`, userId, cardId, winInc)
	if err != nil {
		return fmt.Errorf("failed to update copy round stats for card %d: %w", cardId, err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE cards
		SET rounds_total = rounds_total + 1, rounds_won = rounds_won + $2, updated_at = now()
		WHERE card_id = $1
	`, cardId, winInc)
	if err != nil {
		return fmt.Errorf("failed to update card round aggregates for card %d: %w", cardId, err)
	}
	return nil
}

// RecordMatch settles the final result: battle counters, coin rewards
// and, when the record carries the decks, per-card battle stats.
func (s *MatchStore) RecordMatch(ctx context.Context, rec *battle.MatchRecord) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	sides := []struct {
		userId int64
		deck   []int64
	}{
		{rec.Player1, rec.Deck1},
		{rec.Player2, rec.Deck2},
	}

	for _, side := range sides {
		outcome := "battles_drawn"
		reward := decimal.NewFromInt(battle.RewardDraw)
		switch {
		case rec.WinnerId == side.userId:
			outcome = "battles_won"
			reward = decimal.NewFromInt(battle.RewardWinner)
		case rec.WinnerId != 0:
			outcome = "battles_lost"
			reward = decimal.NewFromInt(battle.RewardLoser)
		}

		_, err = tx.Exec(ctx, `
			UPDATE players
			SET battles_played = battles_played + 1, `+outcome+` = `+outcome+` + 1, updated_at = now()
			WHERE user_id = $1
		`, side.userId)
		if err != nil {
			return fmt.Errorf("failed to update battle stats for player %d: %w", side.userId, err)
		}

		if err := s.balances.Credit(ctx, tx, side.userId, reward, "battle-reward", rec.MatchId); err != nil {
			return err
		}

		won := rec.WinnerId == side.userId
		for _, cardId := range side.deck {
			if err := creditBattleToCard(ctx, tx, side.userId, cardId, won); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func creditBattleToCard(ctx context.Context, tx pgx.Tx, userId, cardId int64, won bool) error {
	winInc := 0
	if won {
		winInc = 1
	}

	_, err := tx.Exec(ctx, `
		UPDATE inventories
		SET battles_played = battles_played + 1, battles_won = battles_won + $3, updated_at = now()
		WHERE user_id = $1 AND card_id = $2
	`, userId, cardId, winInc)
	if err != nil {
		return fmt.Errorf("failed to update copy battle stats for card %d: %w", cardId, err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE cards
		SET battles_total = battles_total + 1, battles_won = battles_won + $2, updated_at = now()
		WHERE card_id = $1
	`, cardId, winInc)
	if err != nil {
		return fmt.Errorf("failed to update card battle aggregates for card %d: %w", cardId, err)
	}
	return nil
}
