package exchange

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// States of a negotiation session.
type State string

const (
	StateOpen      State = "OPEN"
	StateSettled   State = "SETTLED"
	StateCancelled State = "CANCELLED"
)

var (
	ErrNotParty      = errors.New("not a party of this exchange")
	ErrClosed        = errors.New("exchange is already closed")
	ErrNotLocked     = errors.New("lock your offer before confirming")
	ErrPartnerUnlock = errors.New("both offers must be locked")
	ErrCardOffered   = errors.New("card is already on the table")
	ErrCardNotOffer  = errors.New("card is not part of your offer")
	ErrNegativeCoins = errors.New("coin amount cannot be negative")
	ErrSelfTrade     = errors.New("cannot trade with yourself")
	ErrBusy          = errors.New("player already negotiates another exchange")
	ErrVerifyFailed  = errors.New("offer no longer valid")
	ErrPartnerOwns   = errors.New("partner already owns this card")
)

// PartyTerms is one side's final offer inside a settlement.
type PartyTerms struct {
	UserId  int64
	Name    string
	CardIds []int64
	Coins   decimal.Decimal
}

// Settlement is the immutable outcome handed to the settler once both
// sides confirmed.
type Settlement struct {
	Ref string // session or trade id
	A   PartyTerms
	B   PartyTerms
}

// Verifier answers ownership and balance questions while an offer is
// being built, outside any settlement transaction.
type Verifier interface {
	OwnsCard(ctx context.Context, userId, cardId int64) (bool, error)
	Balance(ctx context.Context, userId int64) (decimal.Decimal, error)
}

// Settler atomically executes a settlement. Implementations re-verify
// every term inside their own transaction; ErrVerifyFailed (wrapped or
// not) signals that an offer went stale.
type Settler interface {
	SettleExchange(ctx context.Context, s *Settlement) error
}
