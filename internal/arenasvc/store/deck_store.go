package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mihretdev/cardarena-services/internal/arenasvc/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Decks persist the card list as a comma-separated id string, same as
// the rest of the card references on the wire.
type DeckStore struct {
	db *pgxpool.Pool
}

func NewDeckStore(db *pgxpool.Pool) *DeckStore {
	return &DeckStore{db: db}
}

func joinCardIds(cardIds []int64) string {
	parts := make([]string, len(cardIds))
	for i, id := range cardIds {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func splitCardIds(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid card id %q in deck: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *DeckStore) GetDeck(ctx context.Context, userId int64, deckName string) (*models.Deck, error) {
	var d models.Deck
	var cards string
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, deck_name, cards, created_at, updated_at
		FROM decks
		WHERE user_id = $1 AND deck_name = $2
	`, userId, deckName).Scan(&d.Id, &d.UserId, &d.DeckName, &cards, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDeckMissing
		}
		return nil, fmt.Errorf("failed to get deck %q: %w", deckName, err)
	}

	ids, err := splitCardIds(cards)
	if err != nil {
		return nil, err
	}
	d.CardIds = ids

	return &d, nil
}

func (s *DeckStore) ListDecks(ctx context.Context, userId int64) ([]*models.Deck, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, deck_name, cards, created_at, updated_at
		FROM decks
		WHERE user_id = $1
		ORDER BY deck_name
	`, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks for user %d: %w", userId, err)
	}
	defer rows.Close()

	var decks []*models.Deck
	for rows.Next() {
		var d models.Deck
		var cards string
		if err := rows.Scan(&d.Id, &d.UserId, &d.DeckName, &cards, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		ids, err := splitCardIds(cards)
		if err != nil {
			return nil, err
		}
		d.CardIds = ids
		decks = append(decks, &d)
	}

	return decks, nil
}

func (s *DeckStore) CreateDeck(ctx context.Context, userId int64, deckName string, cardIds []int64) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO decks (user_id, deck_name, cards)
		VALUES ($1, $2, $3)
	`, userId, deckName, joinCardIds(cardIds))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDeckExists
		}
		return fmt.Errorf("failed to create deck %q: %w", deckName, err)
	}
	return nil
}

func (s *DeckStore) UpdateDeck(ctx context.Context, userId int64, deckName string, cardIds []int64) error {
	res, err := s.db.Exec(ctx, `
		UPDATE decks SET cards = $3, updated_at = now()
		WHERE user_id = $1 AND deck_name = $2
	`, userId, deckName, joinCardIds(cardIds))
	if err != nil {
		return fmt.Errorf("failed to update deck %q: %w", deckName, err)
	}
	if res.RowsAffected() != 1 {
		return ErrDeckMissing
	}
	return nil
}
