package battle

import "github.com/mihretdev/cardarena-services/internal/arenasvc/models"

// CardView is the slim card shape rendered on battle screens.
type CardView struct {
	CardId  int64  `json:"cardId"`
	Name    string `json:"name"`
	Attack  int    `json:"attack"`
	Defense int    `json:"defense"`
	Speed   int    `json:"speed"`
	Overall int    `json:"overall"`
}

func cardView(c *models.Card) CardView {
	return CardView{
		CardId:  c.CardId,
		Name:    c.Name,
		Attack:  c.Attack,
		Defense: c.Defense,
		Speed:   c.Speed,
		Overall: c.Overall,
	}
}

// SideView is one participant's public state. Available lists the
// actor's unused cards and is only populated on that actor's side.
type SideView struct {
	UserId           int64      `json:"userId"`
	Name             string     `json:"name"`
	Wins             int        `json:"wins"`
	Tactic           Tactic     `json:"tactic,omitempty"`
	CardChosen       bool       `json:"cardChosen"`
	DrawOffered      bool       `json:"drawOffered"`
	SurrenderPending bool       `json:"surrenderPending"`
	Available        []CardView `json:"available,omitempty"`
}

// RoundOutcome describes how the latest round resolved.
type RoundOutcome struct {
	Round     int      `json:"round"`
	Stat      Tactic   `json:"stat"`
	WinnerId  int64    `json:"winnerId"` // 0 on a drawn round
	Value1    int      `json:"value1"`
	Value2    int      `json:"value2"`
	ByOverall bool     `json:"byOverall"`
	Card1     CardView `json:"card1"`
	Card2     CardView `json:"card2"`
}

// StateView is a self-contained snapshot of the match; renderers work
// from this alone.
type StateView struct {
	MatchId    string        `json:"matchId"`
	Phase      Phase         `json:"phase"`
	Round      int           `json:"round"`
	Draws      int           `json:"draws"`
	TurnUserId int64         `json:"turnUserId"`
	Sides      [2]SideView   `json:"sides"`
	Outcome    *RoundOutcome `json:"outcome,omitempty"`
	WinnerId   int64         `json:"winnerId,omitempty"`
	Surrender  bool          `json:"surrender,omitempty"`
	MutualDraw bool          `json:"mutualDraw,omitempty"`
}
