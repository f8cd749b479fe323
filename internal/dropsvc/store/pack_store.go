package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoPack is returned when a player opens a pack they do not hold.
var ErrNoPack = errors.New("no such pack in holdings")

// Holding is one row of a player's unopened packs.
type Holding struct {
	PackId   int `json:"pack_id"`
	Quantity int `json:"quantity"`
}

// PackStore tracks unopened packs per player.
type PackStore struct {
	db *pgxpool.Pool
}

func NewPackStore(db *pgxpool.Pool) *PackStore {
	return &PackStore{db: db}
}

func (s *PackStore) ListHoldings(ctx context.Context, userId int64) ([]Holding, error) {
	rows, err := s.db.Query(ctx, `
		SELECT pack_id, quantity
		FROM pack_holdings
		WHERE user_id = $1 AND quantity > 0
		ORDER BY pack_id
	`, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to list packs for user %d: %w", userId, err)
	}
	defer rows.Close()

	var holdings []Holding
	for rows.Next() {
		var h Holding
		if err := rows.Scan(&h.PackId, &h.Quantity); err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}

	return holdings, nil
}

// AddPack adds one unopened pack within tx, alongside the purchase
// debit.
func (s *PackStore) AddPack(ctx context.Context, tx pgx.Tx, userId int64, packId int) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO pack_holdings (user_id, pack_id, quantity)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, pack_id) DO UPDATE SET quantity = pack_holdings.quantity + 1
	`, userId, packId)
	if err != nil {
		return fmt.Errorf("failed to add pack %d for user %d: %w", packId, userId, err)
	}
	return nil
}

// ConsumePack spends one unopened pack within tx. ErrNoPack when the
// player holds none.
func (s *PackStore) ConsumePack(ctx context.Context, tx pgx.Tx, userId int64, packId int) error {
	res, err := tx.Exec(ctx, `
		UPDATE pack_holdings SET quantity = quantity - 1
		WHERE user_id = $1 AND pack_id = $2 AND quantity > 0
	`, userId, packId)
	if err != nil {
		return fmt.Errorf("failed to consume pack %d for user %d: %w", packId, userId, err)
	}
	if res.RowsAffected() != 1 {
		return ErrNoPack
	}
	return nil
}
