package models

import "time"

// Rarity tiers derived from the overall rating.
const (
	RarityRare     = "Rare"
	RarityUncommon = "Uncommon"
	RarityCommon   = "Common"
)

// Card types. Standard is the bulk of the catalog; the rest are
// special prints with their own drop weights.
const (
	TypeStandard = "Standard"
	TypeHero     = "Hero"
	TypeIcon     = "Icon"
	TypeEvent    = "Event" // limited tournament prints
)

type Card struct {
	CardId       int64     `json:"card_id"`    // Primary key
	SubjectId    int64     `json:"subject_id"` // Groups prints of the same real-world subject
	Name         string    `json:"name"`
	Attack       int       `json:"attack"`
	Defense      int       `json:"defense"`
	Speed        int       `json:"speed"`
	Overall      int       `json:"overall"`
	Rarity       string    `json:"rarity"`
	CardType     string    `json:"card_type"`
	Artwork      string    `json:"artwork"` // artwork reference, rendering is external
	Copies       int64     `json:"copies"`  // total minted into circulation
	Wishlists    int64     `json:"wishlists"`
	BattlesTotal int64     `json:"battles_total"` // lifetime battle participations across all copies
	BattlesWon   int64     `json:"battles_won"`
	RoundsTotal  int64     `json:"rounds_total"`
	RoundsWon    int64     `json:"rounds_won"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DeriveRarity maps an overall rating to its tier.
func DeriveRarity(overall int) string {
	switch {
	case overall > 85:
		return RarityRare
	case overall > 75:
		return RarityUncommon
	default:
		return RarityCommon
	}
}
