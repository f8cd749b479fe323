package models

import "time"

// DeckSize is fixed: every deck holds exactly five cards.
const DeckSize = 5

// Deck is a named loadout. CardIds keeps the order the player chose;
// no two cards in a deck may share a subject id.
type Deck struct {
	Id        int64     `json:"id"` // Primary key
	UserId    int64     `json:"user_id"`
	DeckName  string    `json:"deck_name"`
	CardIds   []int64   `json:"card_ids"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
