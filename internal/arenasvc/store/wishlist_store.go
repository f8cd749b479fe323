package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type WishlistStore struct {
	db *pgxpool.Pool
}

func NewWishlistStore(db *pgxpool.Pool) *WishlistStore {
	return &WishlistStore{db: db}
}

func (s *WishlistStore) IsWishlisted(ctx context.Context, userId, cardId int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM wishlists WHERE user_id = $1 AND card_id = $2)
	`, userId, cardId).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist: %w", err)
	}
	return exists, nil
}

// Toggle flips the wishlist relation and keeps the card's aggregate
// counter in step, in one transaction. Returns the new state.
func (s *WishlistStore) Toggle(ctx context.Context, userId, cardId int64) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `
		DELETE FROM wishlists WHERE user_id = $1 AND card_id = $2
	`, userId, cardId)
	if err != nil {
		return false, fmt.Errorf("failed to toggle wishlist: %w", err)
	}

	wishlisted := false
	delta := -1
	if res.RowsAffected() == 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO wishlists (user_id, card_id) VALUES ($1, $2)
		`, userId, cardId)
		if err != nil {
			return false, fmt.Errorf("failed to add wishlist entry: %w", err)
		}
		wishlisted = true
		delta = 1
	}

	_, err = tx.Exec(ctx, `
		UPDATE cards SET wishlists = wishlists + $2, updated_at = now() WHERE card_id = $1
	`, cardId, delta)
	if err != nil {
		return false, fmt.Errorf("failed to adjust wishlist count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}

	return wishlisted, nil
}
