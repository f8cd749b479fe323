package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mihretdev/cardarena-services/internal/arenasvc/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const cardColumns = `card_id, subject_id, name, attack, defense, speed, overall,
	rarity, card_type, artwork, copies, wishlists,
	battles_total, battles_won, rounds_total, rounds_won, created_at, updated_at`

type CardStore struct {
	db *pgxpool.Pool
}

func NewCardStore(db *pgxpool.Pool) *CardStore {
	return &CardStore{db: db}
}

func scanCard(row pgx.Row) (*models.Card, error) {
	var c models.Card
	err := row.Scan(
		&c.CardId,
		&c.SubjectId,
		&c.Name,
		&c.Attack,
		&c.Defense,
		&c.Speed,
		&c.Overall,
		&c.Rarity,
		&c.CardType,
		&c.Artwork,
		&c.Copies,
		&c.Wishlists,
		&c.BattlesTotal,
		&c.BattlesWon,
		&c.RoundsTotal,
		&c.RoundsWon,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CardStore) GetCardById(ctx context.Context, cardId int64) (*models.Card, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+cardColumns+`
		FROM cards
		WHERE card_id = $1
	`, cardId)

	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get card %d: %w", cardId, err)
	}

	return card, nil
}

// GetCardsByIds keeps the input order, so deck resolution preserves
// the player's lineup.
func (s *CardStore) GetCardsByIds(ctx context.Context, cardIds []int64) ([]*models.Card, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+cardColumns+`
		FROM cards
		WHERE card_id = ANY($1)
	`, cardIds)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards: %w", err)
	}
	defer rows.Close()

	byId := make(map[int64]*models.Card, len(cardIds))
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		byId[card.CardId] = card
	}

	cards := make([]*models.Card, 0, len(cardIds))
	for _, id := range cardIds {
		card, ok := byId[id]
		if !ok {
			return nil, fmt.Errorf("card %d: %w", id, ErrNotFound)
		}
		cards = append(cards, card)
	}

	return cards, nil
}

// ListCards returns the full catalog, used to build drop tables.
func (s *CardStore) ListCards(ctx context.Context) ([]*models.Card, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+cardColumns+`
		FROM cards
		ORDER BY card_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []*models.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}

	return cards, nil
}

// IncrementCopies mints another copy into circulation and returns the
// new circulation count, which becomes the edition of the copy.
func (s *CardStore) IncrementCopies(ctx context.Context, tx pgx.Tx, cardId int64) (int64, error) {
	var copies int64
	err := tx.QueryRow(ctx, `
		UPDATE cards SET copies = copies + 1, updated_at = now()
		WHERE card_id = $1
		RETURNING copies
	`, cardId).Scan(&copies)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to increment copies for card %d: %w", cardId, err)
	}
	return copies, nil
}

func (s *CardStore) AdjustWishlists(ctx context.Context, cardId int64, delta int) error {
	_, err := s.db.Exec(ctx, `
		UPDATE cards SET wishlists = wishlists + $2, updated_at = now()
		WHERE card_id = $1
	`, cardId, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust wishlists for card %d: %w", cardId, err)
	}
	return nil
}
