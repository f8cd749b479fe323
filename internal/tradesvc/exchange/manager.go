package exchange

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Manager owns live exchange sessions. Offers are verified while they
// are assembled; the settler re-verifies everything once more inside
// its own transaction at commit time.
type Manager struct {
	verifier Verifier
	settler  Settler

	sessions sync.Map // session id -> *Session
	byUser   sync.Map // user id -> session id
}

func NewManager(verifier Verifier, settler Settler) *Manager {
	return &Manager{verifier: verifier, settler: settler}
}

// Start opens a session between the two parties.
func (m *Manager) Start(a, b Party) (*Session, error) {
	if a.UserId == b.UserId {
		return nil, ErrSelfTrade
	}
	if _, busy := m.byUser.Load(a.UserId); busy {
		return nil, ErrBusy
	}
	if _, busy := m.byUser.Load(b.UserId); busy {
		return nil, ErrBusy
	}

	s := NewSession(uuid.NewString(), a, b)
	m.sessions.Store(s.Id, s)
	m.byUser.Store(a.UserId, s.Id)
	m.byUser.Store(b.UserId, s.Id)

	log.Infof("exchange %s opened: %d with %d", s.Id, a.UserId, b.UserId)
	return s, nil
}

// ForUser returns the session the player negotiates in, if any.
func (m *Manager) ForUser(userId int64) (*Session, bool) {
	id, ok := m.byUser.Load(userId)
	if !ok {
		return nil, false
	}
	v, ok := m.sessions.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// AddCard verifies ownership before putting the card on the table.
func (m *Manager) AddCard(ctx context.Context, userId, cardId int64) (*View, error) {
	s, ok := m.ForUser(userId)
	if !ok {
		return nil, ErrNotParty
	}

	owned, err := m.verifier.OwnsCard(ctx, userId, cardId)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, fmt.Errorf("%w: card %d not owned", ErrVerifyFailed, cardId)
	}

	// A card the partner already owns would only bounce at settlement;
	// reject it while the offer is being built instead.
	a, b := s.Parties()
	partnerId := a
	if partnerId == userId {
		partnerId = b
	}
	dup, err := m.verifier.OwnsCard(ctx, partnerId, cardId)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, fmt.Errorf("%w: card %d", ErrPartnerOwns, cardId)
	}

	return s.AddCard(userId, cardId)
}

func (m *Manager) RemoveCard(userId, cardId int64) (*View, error) {
	s, ok := m.ForUser(userId)
	if !ok {
		return nil, ErrNotParty
	}
	return s.RemoveCard(userId, cardId)
}

// SetCoins verifies the player can cover the amount before staking it.
func (m *Manager) SetCoins(ctx context.Context, userId int64, amount decimal.Decimal) (*View, error) {
	s, ok := m.ForUser(userId)
	if !ok {
		return nil, ErrNotParty
	}

	if amount.IsPositive() {
		balance, err := m.verifier.Balance(ctx, userId)
		if err != nil {
			return nil, err
		}
		if balance.LessThan(amount) {
			return nil, fmt.Errorf("%w: balance below %s", ErrVerifyFailed, amount.StringFixed(0))
		}
	}
	return s.SetCoins(userId, amount)
}

func (m *Manager) ClearOffer(userId int64) (*View, error) {
	s, ok := m.ForUser(userId)
	if !ok {
		return nil, ErrNotParty
	}
	return s.ClearOffer(userId)
}

func (m *Manager) Lock(userId int64) (*View, error) {
	s, ok := m.ForUser(userId)
	if !ok {
		return nil, ErrNotParty
	}
	return s.Lock(userId)
}

// Confirm records the confirmation; once both sides confirmed it
// executes the settlement. A stale offer reopens negotiation with all
// locks dropped instead of failing the session.
func (m *Manager) Confirm(ctx context.Context, userId int64) (*View, *Settlement, error) {
	s, ok := m.ForUser(userId)
	if !ok {
		return nil, nil, ErrNotParty
	}

	view, settlement, err := s.Confirm(userId)
	if err != nil || settlement == nil {
		return view, nil, err
	}

	if err := m.settler.SettleExchange(ctx, settlement); err != nil {
		log.Errorf("exchange %s settlement failed: %v", s.Id, err)
		s.ResetLocks()
		return s.Snapshot(), nil, err
	}

	s.MarkSettled()
	m.remove(s)
	log.Infof("exchange %s settled", s.Id)
	return s.Snapshot(), settlement, nil
}

func (m *Manager) Cancel(userId int64) (*View, error) {
	s, ok := m.ForUser(userId)
	if !ok {
		return nil, ErrNotParty
	}

	view, err := s.Cancel(userId)
	if err != nil {
		return nil, err
	}
	m.remove(s)
	return view, nil
}

func (m *Manager) remove(s *Session) {
	a, b := s.Parties()
	m.sessions.Delete(s.Id)
	m.byUser.Delete(a)
	m.byUser.Delete(b)
}

// RunJanitor cancels sessions idle for longer than idleAfter.
func (m *Manager) RunJanitor(ctx context.Context, interval, idleAfter time.Duration, onExpire func(s *Session)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			m.sessions.Range(func(_, v any) bool {
				s := v.(*Session)
				if now.Sub(s.Touched()) < idleAfter {
					return true
				}
				a, _ := s.Parties()
				if _, err := s.Cancel(a); err == nil {
					log.Infof("exchange %s expired after inactivity", s.Id)
					m.remove(s)
					if onExpire != nil {
						onExpire(s)
					}
				}
				return true
			})
		}
	}
}
