package drop

import (
	"errors"

	"github.com/mihretdev/cardarena-services/internal/arenasvc/models"
)

// Pack ids are stable; holdings and shop messages reference them.
const (
	PackRare   = 1
	PackHero   = 2
	PackIcon   = 3
	PackTester = 4
)

var ErrUnknownPack = errors.New("unknown pack")

type Pack struct {
	PackId  int
	Name    string
	Cost    int64
	Buyable bool
}

// Packs is the shop catalog. The tester pack is granted by staff and
// never sold.
var Packs = []Pack{
	{PackId: PackRare, Name: "Rare Pack", Cost: 1000, Buyable: true},
	{PackId: PackHero, Name: "Hero Pack", Cost: 1750, Buyable: true},
	{PackId: PackIcon, Name: "Icon Pack", Cost: 2500, Buyable: true},
	{PackId: PackTester, Name: "Tester Pack", Buyable: false},
}

func PackById(id int) (Pack, bool) {
	for _, p := range Packs {
		if p.PackId == id {
			return p, true
		}
	}
	return Pack{}, false
}

func isStandard(c *models.Card) bool { return c.CardType == models.TypeStandard }
func isSpecial(c *models.Card) bool  { return c.CardType != models.TypeStandard }

func standardBetween(lo, hi int) func(*models.Card) bool {
	return func(c *models.Card) bool {
		return isStandard(c) && c.Overall >= lo && c.Overall <= hi
	}
}

func (e *Engine) chance(pct int) bool {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Intn(100) < pct
}

// pickBiased draws one card above the overall floor, preferring
// standard prints with the given percentage and falling back to the
// other kind when the preferred pool is exhausted.
func (e *Engine) pickBiased(stdPct, minOverall int, skip map[int64]bool) (*models.Card, bool) {
	kinds := []func(*models.Card) bool{isStandard, isSpecial}
	if !e.chance(stdPct) {
		kinds[0], kinds[1] = kinds[1], kinds[0]
	}

	for _, kind := range kinds {
		c, ok := e.PickWhere(func(card *models.Card) bool {
			return !skip[card.CardId] && kind(card) && card.Overall > minOverall
		})
		if ok {
			return c, true
		}
	}
	return nil, false
}

// OpenPack draws a pack's contents, never repeating a card the player
// already owns. ok is false when the catalog cannot satisfy the pack.
func (e *Engine) OpenPack(packId int, owned map[int64]bool) ([]*models.Card, bool) {
	switch packId {
	case PackRare:
		c, ok := e.pickBiased(80, 85, owned)
		if !ok {
			return nil, false
		}
		return []*models.Card{c}, true

	case PackHero:
		return e.PickSet(1, owned, func(c *models.Card) bool {
			return c.CardType == models.TypeHero
		})

	case PackIcon:
		return e.PickSet(1, owned, func(c *models.Card) bool {
			return c.CardType == models.TypeIcon
		})

	case PackTester:
		out, ok := e.PickSet(1, owned, func(c *models.Card) bool {
			return c.CardType == models.TypeIcon
		})
		if !ok {
			return nil, false
		}
		skip := make(map[int64]bool, len(owned)+len(out))
		for id := range owned {
			skip[id] = true
		}
		for _, c := range out {
			skip[c.CardId] = true
		}
		for i := 0; i < 4; i++ {
			c, ok := e.pickBiased(90, 85, skip)
			if !ok {
				return nil, false
			}
			skip[c.CardId] = true
			out = append(out, c)
		}
		return out, true
	}
	return nil, false
}

// StarterSet builds the one-time starter collection: six everyday
// standards, three upper-bracket standards and one standard above 85.
func (e *Engine) StarterSet(owned map[int64]bool) ([]*models.Card, bool) {
	skip := make(map[int64]bool, len(owned)+10)
	for id := range owned {
		skip[id] = true
	}

	var out []*models.Card
	draws := []struct {
		n      int
		filter func(*models.Card) bool
	}{
		{6, standardBetween(70, 79)},
		{3, standardBetween(80, 85)},
		{1, func(c *models.Card) bool { return isStandard(c) && c.Overall > 85 }},
	}
	for _, d := range draws {
		cards, ok := e.PickSet(d.n, skip, d.filter)
		if !ok {
			return nil, false
		}
		for _, c := range cards {
			skip[c.CardId] = true
		}
		out = append(out, cards...)
	}
	return out, true
}

// DailyChoices draws the daily reward options.
func (e *Engine) DailyChoices(n int, owned map[int64]bool) ([]*models.Card, bool) {
	return e.PickSet(n, owned, func(*models.Card) bool { return true })
}

// SaleValue prices a card for selling back to the shop: a flat base
// per print type plus a premium above overall 70.
func SaleValue(c *models.Card) int64 {
	base := int64(100)
	if c.CardType != models.TypeStandard {
		base = 250
	}
	if c.Overall >= 70 {
		base += int64(50 + (c.Overall-70)*5)
	}
	return base
}
