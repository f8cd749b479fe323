package exchange

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Party identifies one negotiator.
type Party struct {
	UserId int64
	Name   string
}

type side struct {
	party     Party
	cardIds   []int64
	coins     decimal.Decimal
	locked    bool
	confirmed bool
}

// Session is a two-sided negotiation: each side assembles cards and
// coins, locks the offer, then confirms. Any change to either offer
// drops all locks and confirmations, so nobody ever confirms terms
// they have not seen.
type Session struct {
	Id string

	mu      sync.Mutex
	sides   [2]side
	state   State
	touched time.Time
}

func NewSession(id string, a, b Party) *Session {
	s := &Session{Id: id, state: StateOpen, touched: time.Now()}
	s.sides[0] = side{party: a}
	s.sides[1] = side{party: b}
	return s
}

func (s *Session) Parties() (int64, int64) {
	return s.sides[0].party.UserId, s.sides[1].party.UserId
}

func (s *Session) Touched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) sideOf(userId int64) (*side, error) {
	for i := range s.sides {
		if s.sides[i].party.UserId == userId {
			return &s.sides[i], nil
		}
	}
	return nil, ErrNotParty
}

// invalidate drops every lock and confirmation; called on any offer
// change.
func (s *Session) invalidate() {
	for i := range s.sides {
		s.sides[i].locked = false
		s.sides[i].confirmed = false
	}
}

func (s *Session) guard(userId int64) (*side, error) {
	if s.state != StateOpen {
		return nil, ErrClosed
	}
	return s.sideOf(userId)
}

func (s *Session) AddCard(userId, cardId int64) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sd, err := s.guard(userId)
	if err != nil {
		return nil, err
	}
	for _, id := range sd.cardIds {
		if id == cardId {
			return nil, ErrCardOffered
		}
	}
	sd.cardIds = append(sd.cardIds, cardId)
	s.invalidate()
	s.touched = time.Now()
	return s.view(), nil
}

func (s *Session) RemoveCard(userId, cardId int64) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sd, err := s.guard(userId)
	if err != nil {
		return nil, err
	}
	for i, id := range sd.cardIds {
		if id == cardId {
			sd.cardIds = append(sd.cardIds[:i], sd.cardIds[i+1:]...)
			s.invalidate()
			s.touched = time.Now()
			return s.view(), nil
		}
	}
	return nil, ErrCardNotOffer
}

func (s *Session) SetCoins(userId int64, amount decimal.Decimal) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sd, err := s.guard(userId)
	if err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, ErrNegativeCoins
	}
	sd.coins = amount
	s.invalidate()
	s.touched = time.Now()
	return s.view(), nil
}

func (s *Session) ClearOffer(userId int64) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sd, err := s.guard(userId)
	if err != nil {
		return nil, err
	}
	sd.cardIds = nil
	sd.coins = decimal.Zero
	s.invalidate()
	s.touched = time.Now()
	return s.view(), nil
}

func (s *Session) Lock(userId int64) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sd, err := s.guard(userId)
	if err != nil {
		return nil, err
	}
	sd.locked = true
	s.touched = time.Now()
	return s.view(), nil
}

// Confirm marks the side as confirmed. When both sides have confirmed
// it returns the settlement to execute; the session stays open until
// MarkSettled, so a failed settlement can fall back to renegotiation.
func (s *Session) Confirm(userId int64) (*View, *Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sd, err := s.guard(userId)
	if err != nil {
		return nil, nil, err
	}
	if !sd.locked {
		return nil, nil, ErrNotLocked
	}
	if !s.sides[0].locked || !s.sides[1].locked {
		return nil, nil, ErrPartnerUnlock
	}
	sd.confirmed = true
	s.touched = time.Now()

	if !s.sides[0].confirmed || !s.sides[1].confirmed {
		return s.view(), nil, nil
	}

	settlement := &Settlement{
		Ref: s.Id,
		A:   s.terms(0),
		B:   s.terms(1),
	}
	return s.view(), settlement, nil
}

func (s *Session) terms(i int) PartyTerms {
	sd := &s.sides[i]
	cards := make([]int64, len(sd.cardIds))
	copy(cards, sd.cardIds)
	return PartyTerms{
		UserId:  sd.party.UserId,
		Name:    sd.party.Name,
		CardIds: cards,
		Coins:   sd.coins,
	}
}

// MarkSettled closes the session after a successful settlement.
func (s *Session) MarkSettled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateSettled
}

// ResetLocks reopens negotiation after a failed settlement.
func (s *Session) ResetLocks() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateOpen {
		s.invalidate()
		s.touched = time.Now()
	}
}

func (s *Session) Cancel(userId int64) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.guard(userId); err != nil {
		return nil, err
	}
	s.state = StateCancelled
	s.touched = time.Now()
	return s.view(), nil
}

// SideView is one side of the table as rendered to both parties.
type SideView struct {
	UserId    int64   `json:"user_id"`
	Name      string  `json:"name"`
	CardIds   []int64 `json:"card_ids"`
	Coins     string  `json:"coins"`
	Locked    bool    `json:"locked"`
	Confirmed bool    `json:"confirmed"`
}

type View struct {
	SessionId string      `json:"session_id"`
	State     State       `json:"state"`
	Sides     [2]SideView `json:"sides"`
}

func (s *Session) view() *View {
	v := &View{SessionId: s.Id, State: s.state}
	for i := range s.sides {
		sd := &s.sides[i]
		cards := make([]int64, len(sd.cardIds))
		copy(cards, sd.cardIds)
		v.Sides[i] = SideView{
			UserId:    sd.party.UserId,
			Name:      sd.party.Name,
			CardIds:   cards,
			Coins:     sd.coins.StringFixed(0),
			Locked:    sd.locked,
			Confirmed: sd.confirmed,
		}
	}
	return v
}

// Snapshot returns the current view.
func (s *Session) Snapshot() *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}
