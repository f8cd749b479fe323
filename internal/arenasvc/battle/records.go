package battle

import "time"

// Coin rewards paid out when a match closes.
const (
	RewardWinner = 200
	RewardLoser  = 100
	RewardDraw   = 100
)

// Round targets. First side to WinsNeeded round wins takes the match;
// MaxRounds caps a best-of series full of draws.
const (
	WinsNeeded = 3
	MaxRounds  = 5
)

// RoundRecord captures one resolved round for persistence. It is
// emitted exactly once per round, at the moment the round resolves.
type RoundRecord struct {
	MatchId  string
	Round    int
	Player1  int64
	Player2  int64
	WinnerId int64 // 0 on a drawn round
	Card1Id  int64
	Card2Id  int64
	Tactic   Tactic
}

// MatchRecord captures the final result. Deck1/Deck2 hold the card ids
// whose per-card battle stats should be credited; both are nil when the
// match ended by surrender or mutual draw.
type MatchRecord struct {
	MatchId   string
	Player1   int64
	Player2   int64
	WinnerId  int64 // 0 on a drawn match
	Draw      bool
	Surrender bool
	Wins1     int
	Wins2     int
	Draws     int
	Rounds    int
	Deck1     []int64
	Deck2     []int64
	StartedAt time.Time
	EndedAt   time.Time
}

// Note is a private message addressed to one participant, carried on a
// transition alongside the shared state view.
type Note struct {
	UserId  int64
	Message string
}

// Transition is everything a single event application produced: the
// state to render, at most one round record, at most one match record,
// and any private notes. Records are nil when the event did not close
// a round or the match.
type Transition struct {
	View  *StateView
	Round *RoundRecord
	Match *MatchRecord
	Notes []Note
}
