package service

import (
	"context"
	"testing"

	"github.com/mihretdev/cardarena-services/internal/arenasvc/models"

	"github.com/stretchr/testify/assert"
)

func deckOf(subjects ...int64) []*models.Card {
	cards := make([]*models.Card, 0, len(subjects))
	for i, s := range subjects {
		cards = append(cards, &models.Card{CardId: int64(1000 + i), SubjectId: s})
	}
	return cards
}

func TestUniqueSubjects(t *testing.T) {
	assert.True(t, uniqueSubjects(deckOf(1, 2, 3, 4, 5)))
	assert.False(t, uniqueSubjects(deckOf(1, 2, 3, 4, 1)), "two prints of one subject")
	assert.True(t, uniqueSubjects(deckOf()))
}

// Both rejections fire before any store access, so nil stores prove
// the order.
func TestSaveDeckRejectsBadCardLists(t *testing.T) {
	s := NewDeckService(nil, nil, nil)
	ctx := context.Background()

	err := s.SaveDeck(ctx, 1, "main", []int64{11, 12, 13})
	assert.ErrorIs(t, err, ErrDeckSize)

	err = s.SaveDeck(ctx, 1, "main", []int64{11, 12, 13, 14, 11})
	assert.ErrorIs(t, err, ErrDuplicateSubject, "the same copy twice is a duplicate, not a missing card")
}
