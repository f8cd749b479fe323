package battle

import (
	"errors"

	"github.com/mihretdev/cardarena-services/internal/arenasvc/models"
)

// Tactic is the per-round stat choice.
type Tactic string

const (
	TacticAttack  Tactic = "attack"
	TacticDefense Tactic = "defense"
	TacticSpeed   Tactic = "speed"
)

// Counter returns the tactic forced on the opponent. Attack and
// defense counter each other; speed always meets speed.
func Counter(t Tactic) Tactic {
	switch t {
	case TacticAttack:
		return TacticDefense
	case TacticDefense:
		return TacticAttack
	default:
		return TacticSpeed
	}
}

// Phase of the match state machine.
type Phase string

const (
	PhaseSetup      Phase = "SETUP"
	PhaseAction     Phase = "ACTION"
	PhaseCardSelect Phase = "CARD_SELECT"
	PhaseResult     Phase = "RESULT"
	PhaseGameOver   Phase = "GAME_OVER"
	PhaseCancelled  Phase = "CANCELLED"
)

// Expected rejections. The match state is unchanged when any of these
// is returned.
var (
	ErrNotParticipant  = errors.New("not a participant of this match")
	ErrNotYourTurn     = errors.New("not your turn to choose the tactic")
	ErrWrongPhase      = errors.New("action not valid in the current phase")
	ErrInvalidTactic   = errors.New("invalid tactic")
	ErrDeckSize        = errors.New("deck must resolve to exactly five cards")
	ErrCardNotInDeck   = errors.New("card is not part of your deck")
	ErrCardUsed        = errors.New("card was already played this match")
	ErrAlreadyChosen   = errors.New("card already chosen for this round")
	ErrNoSurrender     = errors.New("no surrender request pending")
	ErrMatchInProgress = errors.New("player already has a live match")
)

// Event is the closed set of inputs the match consumes. Every user
// command maps to exactly one event; rendering never reaches into the
// match.
type Event interface {
	Actor() int64
}

// SelectDeck binds a resolved deck to the acting player during setup.
type SelectDeck struct {
	UserId int64
	Cards  []*models.Card
}

// ChooseTactic is the turn-holder's stat choice for the round.
type ChooseTactic struct {
	UserId int64
	Tactic Tactic
}

// ChooseCard picks one unused card from the actor's own deck.
type ChooseCard struct {
	UserId int64
	CardId int64
}

// Ready signals the actor wants the next round to begin.
type Ready struct {
	UserId int64
}

// Redisplay re-renders the current phase, e.g. after a failed
// delivery. It never mutates state or re-emits records.
type Redisplay struct {
	UserId int64
}

// OfferDraw registers a mutual-draw offer; the match draws once both
// sides have one outstanding.
type OfferDraw struct {
	UserId int64
}

// RequestSurrender opens the actor's private confirmation step.
type RequestSurrender struct {
	UserId int64
}

// ConfirmSurrender ends the match with the actor as loser.
type ConfirmSurrender struct {
	UserId int64
}

// CancelSurrender withdraws a pending surrender request.
type CancelSurrender struct {
	UserId int64
}

// Cancel abandons the match (setup cancel, timeout, disconnect).
type Cancel struct {
	UserId int64
}

func (e SelectDeck) Actor() int64       { return e.UserId }
func (e ChooseTactic) Actor() int64     { return e.UserId }
func (e ChooseCard) Actor() int64       { return e.UserId }
func (e Ready) Actor() int64            { return e.UserId }
func (e Redisplay) Actor() int64        { return e.UserId }
func (e OfferDraw) Actor() int64        { return e.UserId }
func (e RequestSurrender) Actor() int64 { return e.UserId }
func (e ConfirmSurrender) Actor() int64 { return e.UserId }
func (e CancelSurrender) Actor() int64  { return e.UserId }
func (e Cancel) Actor() int64           { return e.UserId }
