package models

import (
	"database/sql"
	"time"
)

// Player represents the players table. Created lazily on first
// interaction, never deleted.
type Player struct {
	UserId         int64        `json:"user_id"`
	Name           string       `json:"name"`
	BattlesPlayed  int          `json:"battles_played"`
	BattlesWon     int          `json:"battles_won"`
	BattlesLost    int          `json:"battles_lost"`
	BattlesDrawn   int          `json:"battles_drawn"`
	RoundsPlayed   int          `json:"rounds_played"`
	RoundsWon      int          `json:"rounds_won"`
	RoundsLost     int          `json:"rounds_lost"`
	RoundsDrawn    int          `json:"rounds_drawn"`
	CardsSold      int          `json:"cards_sold"`
	CardsDropped   int          `json:"cards_dropped"`
	StarterClaimed bool         `json:"starter_claimed"`
	Title          string       `json:"title,omitempty"`
	SecretFlags    int          `json:"secret_flags"` // bitmask, one use-once bit per easter-egg reward
	LastDailyAt    sql.NullTime `json:"last_daily_at"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
