package battle

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Store persists round and match results. Implementations commit each
// record in a single transaction.
type Store interface {
	RecordRound(ctx context.Context, rec *RoundRecord) error
	RecordMatch(ctx context.Context, rec *MatchRecord) error
}

// Archiver keeps a replayable trace of finished matches.
type Archiver interface {
	ArchiveMatch(ctx context.Context, rec *MatchRecord) error
}

// Achievements re-evaluates a player's tracked stat after it moved.
type Achievements interface {
	Check(ctx context.Context, userId int64, statName string)
}

// Manager owns all live matches. A player can be in at most one match
// at a time; finished and cancelled matches are dropped from the index
// after their records are committed.
type Manager struct {
	store        Store
	archiver     Archiver
	achievements Achievements

	matches sync.Map // match id -> *Match
	byUser  sync.Map // user id -> match id
	pending sync.Map // match id -> *MatchRecord not yet persisted
}

func NewManager(store Store, archiver Archiver, achievements Achievements) *Manager {
	return &Manager{store: store, archiver: archiver, achievements: achievements}
}

// Create opens a new match between the two players.
func (mg *Manager) Create(challenger, challenged Participant) (*Match, error) {
	if _, busy := mg.byUser.Load(challenger.UserId); busy {
		return nil, ErrMatchInProgress
	}
	if _, busy := mg.byUser.Load(challenged.UserId); busy {
		return nil, ErrMatchInProgress
	}

	m := NewMatch(uuid.NewString(), challenger, challenged)
	mg.matches.Store(m.Id, m)
	mg.byUser.Store(challenger.UserId, m.Id)
	mg.byUser.Store(challenged.UserId, m.Id)

	log.Infof("match %s created: %d vs %d", m.Id, challenger.UserId, challenged.UserId)
	return m, nil
}

// ForUser returns the live match the player is in, if any.
func (mg *Manager) ForUser(userId int64) (*Match, bool) {
	id, ok := mg.byUser.Load(userId)
	if !ok {
		return nil, false
	}
	v, ok := mg.matches.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Match), true
}

// Dispatch routes an event to the actor's live match, commits any
// records the transition produced and drops the match once terminal.
func (mg *Manager) Dispatch(ctx context.Context, ev Event) (*Transition, error) {
	m, ok := mg.ForUser(ev.Actor())
	if !ok {
		return nil, ErrNotParticipant
	}

	tr, err := m.Apply(ev)
	if err != nil {
		return nil, err
	}

	mg.commit(ctx, m, tr)
	return tr, nil
}

// commit writes transition records. A failed round write is logged and
// the match plays on; the view the players see stays authoritative. A
// failed final result keeps the match in the index so a later event on
// it retries the commit instead of losing stats and rewards.
func (mg *Manager) commit(ctx context.Context, m *Match, tr *Transition) {
	if tr.Round != nil {
		if err := mg.store.RecordRound(ctx, tr.Round); err != nil {
			log.Errorf("match %s: failed to record round %d: %v", m.Id, tr.Round.Round, err)
		} else if tr.Round.WinnerId != 0 && mg.achievements != nil {
			mg.achievements.Check(ctx, tr.Round.WinnerId, "rounds_won")
		}
	}

	if tr.Match != nil {
		mg.pending.Store(m.Id, tr.Match)
	}

	if phase := tr.View.Phase; phase != PhaseGameOver && phase != PhaseCancelled {
		return
	}

	if v, ok := mg.pending.Load(m.Id); ok {
		if !mg.finishMatch(ctx, m, v.(*MatchRecord)) {
			p1, p2 := m.Players()
			msg := "The result could not be saved yet. It will be retried."
			tr.Notes = append(tr.Notes, Note{UserId: p1, Message: msg}, Note{UserId: p2, Message: msg})
			return
		}
	}
	mg.remove(m)
}

// finishMatch persists the final record and runs the follow-ups that
// depend on it. False means the record is still unsaved and the match
// must stay live.
func (mg *Manager) finishMatch(ctx context.Context, m *Match, rec *MatchRecord) bool {
	if err := mg.store.RecordMatch(ctx, rec); err != nil {
		log.Errorf("match %s: failed to record result: %v", m.Id, err)
		return false
	}
	mg.pending.Delete(m.Id)

	if rec.WinnerId != 0 && mg.achievements != nil {
		mg.achievements.Check(ctx, rec.WinnerId, "battles_won")
	}
	if mg.archiver != nil {
		if err := mg.archiver.ArchiveMatch(ctx, rec); err != nil {
			log.Errorf("match %s: failed to archive: %v", m.Id, err)
		}
	}
	return true
}

func (mg *Manager) remove(m *Match) {
	p1, p2 := m.Players()
	mg.matches.Delete(m.Id)
	mg.byUser.Delete(p1)
	mg.byUser.Delete(p2)
}

// RunJanitor cancels matches idle for longer than idleAfter. onExpire,
// when set, receives the cancellation transition so the players can be
// told.
func (mg *Manager) RunJanitor(ctx context.Context, interval, idleAfter time.Duration, onExpire func(m *Match, tr *Transition)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mg.expireIdle(idleAfter, onExpire)
		}
	}
}

func (mg *Manager) expireIdle(idleAfter time.Duration, onExpire func(m *Match, tr *Transition)) {
	now := time.Now()
	mg.matches.Range(func(_, v any) bool {
		m := v.(*Match)
		if now.Sub(m.Touched()) < idleAfter {
			return true
		}

		p1, _ := m.Players()
		tr, err := m.Apply(Cancel{UserId: p1})
		if err != nil {
			// Terminal matches only linger when the final commit
			// failed; give it another try from here.
			if v, ok := mg.pending.Load(m.Id); ok {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				if mg.finishMatch(ctx, m, v.(*MatchRecord)) {
					mg.remove(m)
				}
				cancel()
			}
			return true
		}
		log.Infof("match %s expired after inactivity", m.Id)
		mg.remove(m)
		if onExpire != nil {
			onExpire(m, tr)
		}
		return true
	})
}
