package drop

import (
	"math/rand"
	"testing"

	"github.com/mihretdev/cardarena-services/internal/arenasvc/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogCard(id int64, cardType string, overall int) *models.Card {
	return &models.Card{
		CardId:    id,
		SubjectId: id,
		CardType:  cardType,
		Overall:   overall,
		Attack:    overall,
		Defense:   overall,
		Speed:     overall,
		Rarity:    models.DeriveRarity(overall),
	}
}

// testCatalog spans every drop bracket with a handful of cards each.
func testCatalog() []*models.Card {
	var cards []*models.Card
	id := int64(1)
	add := func(n int, cardType string, overall int) {
		for i := 0; i < n; i++ {
			cards = append(cards, catalogCard(id, cardType, overall))
			id++
		}
	}
	add(8, models.TypeStandard, 74)
	add(6, models.TypeStandard, 82)
	add(5, models.TypeStandard, 88)
	add(4, models.TypeStandard, 93)
	add(3, models.TypeHero, 86)
	add(3, models.TypeIcon, 84)
	add(2, models.TypeIcon, 91)
	add(2, models.TypeStandard, 65) // below the drop floor
	return cards
}

func newTestEngine() *Engine {
	return NewEngine(testCatalog(), rand.New(rand.NewSource(1)))
}

func TestWeightBrackets(t *testing.T) {
	cases := []struct {
		cardType string
		overall  int
		want     int64
	}{
		{models.TypeStandard, 74, 70},
		{models.TypeStandard, 79, 70},
		{models.TypeStandard, 80, 20},
		{models.TypeStandard, 85, 20},
		{models.TypeStandard, 86, 7},
		{models.TypeStandard, 90, 7},
		{models.TypeStandard, 91, 3},
		{models.TypeStandard, 69, 0},
		{models.TypeHero, 75, 2},
		{models.TypeIcon, 84, 2},
		{models.TypeIcon, 90, 1},
		{models.TypeIcon, 79, 0},
		{models.TypeEvent, 65, 1},
		{models.TypeEvent, 95, 1},
	}
	for _, c := range cases {
		got := Weight(catalogCard(1, c.cardType, c.overall))
		assert.Equal(t, c.want, got, "%s overall %d", c.cardType, c.overall)
	}
}

func TestRebuildDropsUndroppable(t *testing.T) {
	e := newTestEngine()
	// 2 cards sit below the floor and never enter the table.
	assert.Equal(t, len(testCatalog())-2, e.Size())
}

func TestPickFollowsWeights(t *testing.T) {
	e := newTestEngine()

	counts := map[string]int{}
	for i := 0; i < 5000; i++ {
		c, ok := e.Pick()
		require.True(t, ok)
		require.NotEqual(t, 0, Weight(c), "undroppable card drawn")
		bracket := c.CardType
		if c.CardType == models.TypeStandard && c.Overall < 80 {
			bracket = "common"
		}
		counts[bracket]++
	}

	assert.Greater(t, counts["common"], counts[models.TypeStandard],
		"the 70-79 bracket dominates the table")
	assert.Greater(t, counts["common"], counts[models.TypeIcon])
}

func TestPickWhereEmptyPool(t *testing.T) {
	e := newTestEngine()
	_, ok := e.PickWhere(func(c *models.Card) bool { return c.Overall > 99 })
	assert.False(t, ok)
}

func TestPickSetDistinctAndSkipsOwned(t *testing.T) {
	e := newTestEngine()
	owned := map[int64]bool{1: true, 2: true, 3: true}

	cards, ok := e.PickSet(5, owned, standardBetween(70, 79))
	require.True(t, ok)
	require.Len(t, cards, 5)

	seen := map[int64]bool{}
	for _, c := range cards {
		assert.False(t, owned[c.CardId], "owned card drawn")
		assert.False(t, seen[c.CardId], "duplicate card drawn")
		seen[c.CardId] = true
	}

	// Only 8 cards exist in the bracket, 3 of them owned.
	_, ok = e.PickSet(6, owned, standardBetween(70, 79))
	assert.False(t, ok)
}

func TestOpenRarePack(t *testing.T) {
	e := newTestEngine()
	for i := 0; i < 50; i++ {
		cards, ok := e.OpenPack(PackRare, nil)
		require.True(t, ok)
		require.Len(t, cards, 1)
		assert.Greater(t, cards[0].Overall, 85)
	}
}

func TestOpenTypedPacks(t *testing.T) {
	e := newTestEngine()

	cards, ok := e.OpenPack(PackHero, nil)
	require.True(t, ok)
	require.Len(t, cards, 1)
	assert.Equal(t, models.TypeHero, cards[0].CardType)

	cards, ok = e.OpenPack(PackIcon, nil)
	require.True(t, ok)
	require.Len(t, cards, 1)
	assert.Equal(t, models.TypeIcon, cards[0].CardType)

	_, ok = e.OpenPack(99, nil)
	assert.False(t, ok)
}

func TestOpenTesterPack(t *testing.T) {
	e := newTestEngine()

	cards, ok := e.OpenPack(PackTester, nil)
	require.True(t, ok)
	require.Len(t, cards, 5)
	assert.Equal(t, models.TypeIcon, cards[0].CardType)

	seen := map[int64]bool{}
	for _, c := range cards {
		assert.False(t, seen[c.CardId])
		seen[c.CardId] = true
	}
	for _, c := range cards[1:] {
		assert.Greater(t, c.Overall, 85)
	}
}

func TestStarterSet(t *testing.T) {
	e := newTestEngine()

	cards, ok := e.StarterSet(nil)
	require.True(t, ok)
	require.Len(t, cards, 10)

	var low, mid, high int
	for _, c := range cards {
		require.Equal(t, models.TypeStandard, c.CardType)
		switch {
		case c.Overall <= 79:
			low++
		case c.Overall <= 85:
			mid++
		default:
			high++
		}
	}
	assert.Equal(t, 6, low)
	assert.Equal(t, 3, mid)
	assert.Equal(t, 1, high)
}

func TestDailyChoices(t *testing.T) {
	e := newTestEngine()
	cards, ok := e.DailyChoices(2, nil)
	require.True(t, ok)
	require.Len(t, cards, 2)
	assert.NotEqual(t, cards[0].CardId, cards[1].CardId)
}

func TestSaleValue(t *testing.T) {
	assert.Equal(t, int64(100), SaleValue(catalogCard(1, models.TypeStandard, 60)))
	assert.Equal(t, int64(150), SaleValue(catalogCard(1, models.TypeStandard, 70)))
	assert.Equal(t, int64(250), SaleValue(catalogCard(1, models.TypeStandard, 90)))
	assert.Equal(t, int64(390), SaleValue(catalogCard(1, models.TypeIcon, 88)))
	assert.Equal(t, int64(250), SaleValue(catalogCard(1, models.TypeHero, 60)))
}
