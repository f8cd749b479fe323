package models

import "time"

// InventoryEntry is the ownership relation. (UserId, CardId) is unique:
// a player never holds two copies of the same print. Edition is the
// circulation count at acquisition and survives trades; TradeCount
// increments on every ownership transfer.
type InventoryEntry struct {
	Id            int64     `json:"id"` // Primary key
	UserId        int64     `json:"user_id"`
	CardId        int64     `json:"card_id"`
	Edition       int64     `json:"edition"`
	TradeCount    int       `json:"trade_count"`
	BattlesPlayed int       `json:"battles_played"` // per-copy counters, distinct from card aggregates
	BattlesWon    int       `json:"battles_won"`
	RoundsPlayed  int       `json:"rounds_played"`
	RoundsWon     int       `json:"rounds_won"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OwnedCard joins a card definition with its inventory entry for
// inventory listings and deck resolution.
type OwnedCard struct {
	Card    Card  `json:"card"`
	Edition int64 `json:"edition"`
}
