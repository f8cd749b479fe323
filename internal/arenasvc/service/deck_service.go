package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mihretdev/cardarena-services/internal/arenasvc/models"
	"github.com/mihretdev/cardarena-services/internal/arenasvc/store"
)

// DeckService validates and resolves battle decks.
type DeckService struct {
	decks     *store.DeckStore
	cards     *store.CardStore
	inventory *store.InventoryStore
}

func NewDeckService(decks *store.DeckStore, cards *store.CardStore, inventory *store.InventoryStore) *DeckService {
	return &DeckService{decks: decks, cards: cards, inventory: inventory}
}

// validate checks size, ownership and subject uniqueness, and returns
// the resolved cards in the given order.
func (s *DeckService) validate(ctx context.Context, userId int64, cardIds []int64) ([]*models.Card, error) {
	if len(cardIds) != models.DeckSize {
		return nil, ErrDeckSize
	}

	// The same copy listed twice is a duplicate subject before any
	// lookup happens; the store would silently fold it into one row.
	seen := make(map[int64]bool, len(cardIds))
	for _, id := range cardIds {
		if seen[id] {
			return nil, fmt.Errorf("%w: card %d listed twice", ErrDuplicateSubject, id)
		}
		seen[id] = true
	}

	cards, err := s.cards.GetCardsByIds(ctx, cardIds)
	if err != nil {
		return nil, err
	}
	if len(cards) != models.DeckSize {
		return nil, ErrCardNotOwned
	}

	if !uniqueSubjects(cards) {
		return nil, ErrDuplicateSubject
	}

	for _, c := range cards {
		owned, err := s.inventory.OwnsCard(ctx, userId, c.CardId)
		if err != nil {
			return nil, err
		}
		if !owned {
			return nil, fmt.Errorf("%w: %s", ErrCardNotOwned, c.Name)
		}
	}

	return cards, nil
}

// uniqueSubjects reports whether no two cards picture the same subject.
// Two prints of one subject in a deck would trivialize the stat game.
func uniqueSubjects(cards []*models.Card) bool {
	seen := make(map[int64]bool, len(cards))
	for _, c := range cards {
		if seen[c.SubjectId] {
			return false
		}
		seen[c.SubjectId] = true
	}
	return true
}

// SaveDeck creates the deck, or overwrites it when a deck of that name
// already exists.
func (s *DeckService) SaveDeck(ctx context.Context, userId int64, deckName string, cardIds []int64) error {
	if _, err := s.validate(ctx, userId, cardIds); err != nil {
		return err
	}

	err := s.decks.CreateDeck(ctx, userId, deckName, cardIds)
	if errors.Is(err, store.ErrDeckExists) {
		return s.decks.UpdateDeck(ctx, userId, deckName, cardIds)
	}
	return err
}

func (s *DeckService) ListDecks(ctx context.Context, userId int64) ([]*models.Deck, error) {
	return s.decks.ListDecks(ctx, userId)
}

// ResolveDeck loads a saved deck and re-validates it against the
// current collection, so a deck holding traded-away cards cannot enter
// a battle.
func (s *DeckService) ResolveDeck(ctx context.Context, userId int64, deckName string) ([]*models.Card, error) {
	deck, err := s.decks.GetDeck(ctx, userId, deckName)
	if err != nil {
		return nil, err
	}
	return s.validate(ctx, userId, deck.CardIds)
}
