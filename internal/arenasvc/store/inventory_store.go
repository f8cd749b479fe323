package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mihretdev/cardarena-services/internal/arenasvc/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InventoryStore struct {
	db *pgxpool.Pool
}

func NewInventoryStore(db *pgxpool.Pool) *InventoryStore {
	return &InventoryStore{db: db}
}

func (s *InventoryStore) OwnsCard(ctx context.Context, userId, cardId int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM inventories WHERE user_id = $1 AND card_id = $2)
	`, userId, cardId).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check ownership: %w", err)
	}
	return exists, nil
}

func (s *InventoryStore) GetInventory(ctx context.Context, userId int64) ([]models.OwnedCard, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+prefixedCardColumns("c")+`, i.edition
		FROM cards c
		JOIN inventories i ON c.card_id = i.card_id
		WHERE i.user_id = $1
		ORDER BY c.overall DESC
	`, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory for user %d: %w", userId, err)
	}
	defer rows.Close()

	var owned []models.OwnedCard
	for rows.Next() {
		var c models.Card
		var edition int64
		err := rows.Scan(
			&c.CardId, &c.SubjectId, &c.Name, &c.Attack, &c.Defense, &c.Speed,
			&c.Overall, &c.Rarity, &c.CardType, &c.Artwork, &c.Copies, &c.Wishlists,
			&c.BattlesTotal, &c.BattlesWon, &c.RoundsTotal, &c.RoundsWon,
			&c.CreatedAt, &c.UpdatedAt, &edition,
		)
		if err != nil {
			return nil, err
		}
		owned = append(owned, models.OwnedCard{Card: c, Edition: edition})
	}

	return owned, nil
}

// MintCard mints a fresh copy and places it in the user's inventory in
// one transaction: circulation goes up by one and the new count becomes
// the copy's edition. A duplicate (user, card) pair is rejected with
// ErrAlreadyOwned and nothing is minted.
func (s *InventoryStore) MintCard(ctx context.Context, userId, cardId int64) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var copies int64
	err = tx.QueryRow(ctx, `
		UPDATE cards SET copies = copies + 1, updated_at = now()
		WHERE card_id = $1
		RETURNING copies
	`, cardId).Scan(&copies)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to mint card %d: %w", cardId, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO inventories (user_id, card_id, edition)
		VALUES ($1, $2, $3)
	`, userId, cardId, copies)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrAlreadyOwned
		}
		return 0, fmt.Errorf("failed to add card %d to inventory: %w", cardId, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	return copies, nil
}

// RemoveCard deletes the ownership row (sale). The copy leaves the
// player but circulation is not decremented.
func (s *InventoryStore) RemoveCard(ctx context.Context, tx pgx.Tx, userId, cardId int64) error {
	res, err := tx.Exec(ctx, `
		DELETE FROM inventories WHERE user_id = $1 AND card_id = $2
	`, userId, cardId)
	if err != nil {
		return fmt.Errorf("failed to remove card %d from inventory: %w", cardId, err)
	}
	if res.RowsAffected() != 1 {
		return ErrNotOwner
	}
	return nil
}

// TransferCard reassigns ownership and bumps the trade counter. The
// edition stays with the copy.
func (s *InventoryStore) TransferCard(ctx context.Context, tx pgx.Tx, fromUserId, toUserId, cardId int64) error {
	res, err := tx.Exec(ctx, `
		UPDATE inventories
		SET user_id = $1, trade_count = trade_count + 1, updated_at = now()
		WHERE user_id = $2 AND card_id = $3
	`, toUserId, fromUserId, cardId)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyOwned
		}
		return fmt.Errorf("failed to transfer card %d: %w", cardId, err)
	}
	if res.RowsAffected() != 1 {
		return ErrNotOwner
	}
	return nil
}

func prefixedCardColumns(alias string) string {
	return alias + `.card_id, ` + alias + `.subject_id, ` + alias + `.name, ` +
		alias + `.attack, ` + alias + `.defense, ` + alias + `.speed, ` + alias + `.overall, ` +
		alias + `.rarity, ` + alias + `.card_type, ` + alias + `.artwork, ` +
		alias + `.copies, ` + alias + `.wishlists, ` +
		alias + `.battles_total, ` + alias + `.battles_won, ` +
		alias + `.rounds_total, ` + alias + `.rounds_won, ` +
		alias + `.created_at, ` + alias + `.updated_at`
}
