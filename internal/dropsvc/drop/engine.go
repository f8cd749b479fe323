package drop

import (
	"math/rand"
	"sync"

	"github.com/mihretdev/cardarena-services/internal/arenasvc/models"
)

// Weight returns a card's share of the drop table. Zero means the
// card never drops.
func Weight(c *models.Card) int64 {
	switch c.CardType {
	case models.TypeHero:
		return 2
	case models.TypeIcon:
		switch {
		case c.Overall >= 90:
			return 1
		case c.Overall >= 80:
			return 2
		}
		return 0
	case models.TypeEvent:
		// Event prints drop at the floor rate regardless of rating.
		return 1
	default:
		switch {
		case c.Overall > 90:
			return 3
		case c.Overall >= 86:
			return 7
		case c.Overall >= 80:
			return 20
		case c.Overall >= 70:
			return 70
		}
		return 0
	}
}

// Engine draws cards from a weighted table precomputed over the
// catalog. The table is rebuilt when the catalog changes; draws in
// flight keep reading the old one.
type Engine struct {
	mu    sync.RWMutex
	cards []*models.Card
	cum   []int64
	total int64

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewEngine builds the table over the droppable subset of cards. The
// rand source is injected so tests can pin the sequence.
func NewEngine(cards []*models.Card, rng *rand.Rand) *Engine {
	e := &Engine{rng: rng}
	e.Rebuild(cards)
	return e
}

// Rebuild swaps in a fresh table, dropping zero-weight cards.
func (e *Engine) Rebuild(cards []*models.Card) {
	var kept []*models.Card
	var cum []int64
	var total int64
	for _, c := range cards {
		w := Weight(c)
		if w == 0 {
			continue
		}
		total += w
		kept = append(kept, c)
		cum = append(cum, total)
	}

	e.mu.Lock()
	e.cards = kept
	e.cum = cum
	e.total = total
	e.mu.Unlock()
}

// Size reports how many cards are currently droppable.
func (e *Engine) Size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cards)
}

func (e *Engine) roll(total int64) int64 {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Int63n(total)
}

// Pick draws one card from the full table. ok is false when the table
// is empty.
func (e *Engine) Pick() (*models.Card, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.total == 0 {
		return nil, false
	}
	r := e.roll(e.total)
	for i, c := range e.cum {
		if r < c {
			return e.cards[i], true
		}
	}
	return nil, false
}

// PickWhere draws one card from the subset passing the filter, keeping
// the relative weights. ok is false when no card qualifies.
func (e *Engine) PickWhere(filter func(*models.Card) bool) (*models.Card, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var pool []*models.Card
	var cum []int64
	var total int64
	for _, c := range e.cards {
		if !filter(c) {
			continue
		}
		total += Weight(c)
		pool = append(pool, c)
		cum = append(cum, total)
	}
	if total == 0 {
		return nil, false
	}

	r := e.roll(total)
	for i, c := range cum {
		if r < c {
			return pool[i], true
		}
	}
	return nil, false
}

// PickSet draws n distinct cards passing the filter. Cards in skip
// (already owned, or drawn earlier in a multi-part opening) never
// repeat. ok is false when the pool runs dry before n cards.
func (e *Engine) PickSet(n int, skip map[int64]bool, filter func(*models.Card) bool) ([]*models.Card, bool) {
	drawn := make(map[int64]bool, len(skip)+n)
	for id := range skip {
		drawn[id] = true
	}

	out := make([]*models.Card, 0, n)
	for len(out) < n {
		c, ok := e.PickWhere(func(card *models.Card) bool {
			return !drawn[card.CardId] && filter(card)
		})
		if !ok {
			return nil, false
		}
		drawn[c.CardId] = true
		out = append(out, c)
	}
	return out, true
}
