package service

import (
	"context"

	"github.com/mihretdev/cardarena-services/internal/arenasvc/models"
	"github.com/mihretdev/cardarena-services/internal/arenasvc/store"
)

// CardService serves the catalog, collections and wishlists.
type CardService struct {
	cards     *store.CardStore
	inventory *store.InventoryStore
	wishlists *store.WishlistStore
}

func NewCardService(cards *store.CardStore, inventory *store.InventoryStore, wishlists *store.WishlistStore) *CardService {
	return &CardService{cards: cards, inventory: inventory, wishlists: wishlists}
}

func (s *CardService) GetCard(ctx context.Context, cardId int64) (*models.Card, error) {
	return s.cards.GetCardById(ctx, cardId)
}

func (s *CardService) ListCatalog(ctx context.Context) ([]*models.Card, error) {
	return s.cards.ListCards(ctx)
}

// CardDetail is a card plus the viewer's relation to it.
type CardDetail struct {
	Card       *models.Card
	Owned      bool
	Wishlisted bool
}

func (s *CardService) GetCardDetail(ctx context.Context, userId, cardId int64) (*CardDetail, error) {
	c, err := s.cards.GetCardById(ctx, cardId)
	if err != nil {
		return nil, err
	}

	owned, err := s.inventory.OwnsCard(ctx, userId, cardId)
	if err != nil {
		return nil, err
	}
	wishlisted, err := s.wishlists.IsWishlisted(ctx, userId, cardId)
	if err != nil {
		return nil, err
	}

	return &CardDetail{Card: c, Owned: owned, Wishlisted: wishlisted}, nil
}

func (s *CardService) GetCollection(ctx context.Context, userId int64) ([]models.OwnedCard, error) {
	return s.inventory.GetInventory(ctx, userId)
}

// ToggleWishlist flips the wishlist state and returns the new one.
func (s *CardService) ToggleWishlist(ctx context.Context, userId, cardId int64) (bool, error) {
	if _, err := s.cards.GetCardById(ctx, cardId); err != nil {
		return false, err
	}
	return s.wishlists.Toggle(ctx, userId, cardId)
}
