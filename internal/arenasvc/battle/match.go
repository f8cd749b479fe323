package battle

import (
	"fmt"
	"sync"
	"time"

	"github.com/mihretdev/cardarena-services/internal/arenasvc/models"
)

// Participant identifies one player of a match.
type Participant struct {
	UserId int64
	Name   string
}

type side struct {
	player           Participant
	deck             []*models.Card
	used             map[int64]bool
	wins             int
	tactic           Tactic
	card             *models.Card
	ready            bool
	drawOffered      bool
	surrenderPending bool
}

func (s *side) unused() []CardView {
	var out []CardView
	for _, c := range s.deck {
		if !s.used[c.CardId] {
			out = append(out, cardView(c))
		}
	}
	return out
}

// Match is the in-memory state machine for one battle. All access goes
// through Apply; the internal mutex makes a match safe for concurrent
// events from both players.
type Match struct {
	Id string

	mu         sync.Mutex
	sides      [2]side
	phase      Phase
	round      int
	draws      int
	turn       int
	resolved   bool
	outcome    *RoundOutcome
	winner     int64
	surrender  bool
	mutualDraw bool
	startedAt  time.Time
	touched    time.Time
}

// NewMatch starts a match in setup. The challenger holds the first
// turn.
func NewMatch(id string, challenger, challenged Participant) *Match {
	now := time.Now()
	m := &Match{
		Id:        id,
		phase:     PhaseSetup,
		startedAt: now,
		touched:   now,
	}
	m.sides[0] = side{player: challenger, used: make(map[int64]bool)}
	m.sides[1] = side{player: challenged, used: make(map[int64]bool)}
	return m
}

// Players returns both participant user ids.
func (m *Match) Players() (int64, int64) {
	return m.sides[0].player.UserId, m.sides[1].player.UserId
}

// Touched reports when the last valid event was applied.
func (m *Match) Touched() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.touched
}

// Phase reads the current phase.
func (m *Match) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

func (m *Match) sideOf(userId int64) (int, bool) {
	for i := range m.sides {
		if m.sides[i].player.UserId == userId {
			return i, true
		}
	}
	return 0, false
}

// Apply feeds one event to the state machine and returns the resulting
// transition. On error the match state is unchanged.
func (m *Match) Apply(ev Event) (*Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.sideOf(ev.Actor())
	if !ok {
		return nil, ErrNotParticipant
	}

	if m.phase == PhaseGameOver || m.phase == PhaseCancelled {
		if _, isRedisplay := ev.(Redisplay); isRedisplay {
			return m.transition(), nil
		}
		return nil, ErrWrongPhase
	}

	var tr *Transition
	var err error
	switch e := ev.(type) {
	case SelectDeck:
		tr, err = m.selectDeck(i, e.Cards)
	case ChooseTactic:
		tr, err = m.chooseTactic(i, e.Tactic)
	case ChooseCard:
		tr, err = m.chooseCard(i, e.CardId)
	case Ready:
		tr, err = m.readyUp(i)
	case Redisplay:
		tr = m.transition()
	case OfferDraw:
		tr, err = m.offerDraw(i)
	case RequestSurrender:
		tr, err = m.requestSurrender(i)
	case ConfirmSurrender:
		tr, err = m.confirmSurrender(i)
	case CancelSurrender:
		tr, err = m.cancelSurrender(i)
	case Cancel:
		tr = m.cancelMatch()
	default:
		return nil, fmt.Errorf("unhandled battle event %T", ev)
	}
	if err != nil {
		return nil, err
	}

	m.touched = time.Now()
	return tr, nil
}

func (m *Match) selectDeck(i int, cards []*models.Card) (*Transition, error) {
	if m.phase != PhaseSetup {
		return nil, ErrWrongPhase
	}
	if len(cards) != models.DeckSize {
		return nil, ErrDeckSize
	}
	m.sides[i].deck = cards

	if m.sides[0].deck != nil && m.sides[1].deck != nil {
		m.phase = PhaseAction
		m.round = 1
	}
	return m.transition(), nil
}

func (m *Match) chooseTactic(i int, t Tactic) (*Transition, error) {
	if m.phase != PhaseAction {
		return nil, ErrWrongPhase
	}
	if i != m.turn {
		return nil, ErrNotYourTurn
	}
	switch t {
	case TacticAttack, TacticDefense, TacticSpeed:
	default:
		return nil, ErrInvalidTactic
	}

	m.sides[m.turn].tactic = t
	m.sides[1-m.turn].tactic = Counter(t)
	m.phase = PhaseCardSelect
	return m.transition(), nil
}

func (m *Match) chooseCard(i int, cardId int64) (*Transition, error) {
	if m.phase != PhaseCardSelect {
		return nil, ErrWrongPhase
	}
	s := &m.sides[i]
	if s.card != nil {
		return nil, ErrAlreadyChosen
	}

	var picked *models.Card
	for _, c := range s.deck {
		if c.CardId == cardId {
			picked = c
			break
		}
	}
	if picked == nil {
		return nil, ErrCardNotInDeck
	}
	if s.used[cardId] {
		return nil, ErrCardUsed
	}
	s.card = picked

	if m.sides[0].card != nil && m.sides[1].card != nil {
		return m.resolveRound(), nil
	}
	return m.transition(), nil
}

func statValue(c *models.Card, t Tactic) int {
	switch t {
	case TacticAttack:
		return c.Attack
	case TacticDefense:
		return c.Defense
	default:
		return c.Speed
	}
}

// resolveRound scores the round once. Re-entry after the first
// resolution renders the cached outcome and emits no further records.
func (m *Match) resolveRound() *Transition {
	if m.resolved {
		return m.transition()
	}
	m.resolved = true
	m.phase = PhaseResult

	s0, s1 := &m.sides[0], &m.sides[1]
	v0 := statValue(s0.card, s0.tactic)
	v1 := statValue(s1.card, s1.tactic)

	outcome := &RoundOutcome{
		Round:  m.round,
		Stat:   m.sides[m.turn].tactic,
		Value1: v0,
		Value2: v1,
		Card1:  cardView(s0.card),
		Card2:  cardView(s1.card),
	}

	winner := -1
	switch {
	case v0 > v1:
		winner = 0
	case v1 > v0:
		winner = 1
	case s0.card.Overall > s1.card.Overall:
		winner, outcome.ByOverall = 0, true
	case s1.card.Overall > s0.card.Overall:
		winner, outcome.ByOverall = 1, true
	}

	if winner >= 0 {
		m.sides[winner].wins++
		outcome.WinnerId = m.sides[winner].player.UserId
	} else {
		m.draws++
	}

	s0.used[s0.card.CardId] = true
	s1.used[s1.card.CardId] = true
	m.outcome = outcome

	record := &RoundRecord{
		MatchId:  m.Id,
		Round:    m.round,
		Player1:  s0.player.UserId,
		Player2:  s1.player.UserId,
		WinnerId: outcome.WinnerId,
		Card1Id:  s0.card.CardId,
		Card2Id:  s1.card.CardId,
		Tactic:   outcome.Stat,
	}

	tr := m.transition()
	tr.Round = record

	if s0.wins == WinsNeeded || s1.wins == WinsNeeded || m.round == MaxRounds {
		tr.Match = m.close(m.leaderId(), false, false, true)
		tr.View = m.view()
	}
	return tr
}

// leaderId returns the user with more round wins, or 0 on equal score.
func (m *Match) leaderId() int64 {
	switch {
	case m.sides[0].wins > m.sides[1].wins:
		return m.sides[0].player.UserId
	case m.sides[1].wins > m.sides[0].wins:
		return m.sides[1].player.UserId
	}
	return 0
}

func (m *Match) readyUp(i int) (*Transition, error) {
	if m.phase != PhaseResult {
		return nil, ErrWrongPhase
	}
	m.sides[i].ready = true

	if m.sides[0].ready && m.sides[1].ready {
		m.nextRound()
	}
	return m.transition(), nil
}

// nextRound resets per-round state and hands the turn to the other
// side.
func (m *Match) nextRound() {
	m.round++
	m.turn = 1 - m.turn
	m.resolved = false
	m.outcome = nil
	for i := range m.sides {
		m.sides[i].tactic = ""
		m.sides[i].card = nil
		m.sides[i].ready = false
	}
	m.phase = PhaseAction
}

func (m *Match) offerDraw(i int) (*Transition, error) {
	if m.phase == PhaseSetup {
		return nil, ErrWrongPhase
	}
	s := &m.sides[i]
	if s.drawOffered {
		return m.transition(Note{
			UserId:  s.player.UserId,
			Message: "You already offered a draw. Waiting for your opponent.",
		}), nil
	}
	s.drawOffered = true

	if m.sides[0].drawOffered && m.sides[1].drawOffered {
		rec := m.close(0, true, false, false)
		tr := m.transition()
		tr.Match = rec
		return tr, nil
	}

	other := &m.sides[1-i]
	return m.transition(Note{
		UserId:  other.player.UserId,
		Message: fmt.Sprintf("%s offers a draw. Offer a draw yourself to accept.", s.player.Name),
	}), nil
}

func (m *Match) requestSurrender(i int) (*Transition, error) {
	if m.phase == PhaseSetup {
		return nil, ErrWrongPhase
	}
	m.sides[i].surrenderPending = true
	return m.transition(Note{
		UserId:  m.sides[i].player.UserId,
		Message: "Confirm surrender? Your opponent takes the win.",
	}), nil
}

func (m *Match) confirmSurrender(i int) (*Transition, error) {
	if !m.sides[i].surrenderPending {
		return nil, ErrNoSurrender
	}
	rec := m.close(m.sides[1-i].player.UserId, false, true, false)
	tr := m.transition()
	tr.Match = rec
	return tr, nil
}

func (m *Match) cancelSurrender(i int) (*Transition, error) {
	if !m.sides[i].surrenderPending {
		return nil, ErrNoSurrender
	}
	m.sides[i].surrenderPending = false
	return m.transition(), nil
}

func (m *Match) cancelMatch() *Transition {
	m.phase = PhaseCancelled
	return m.transition()
}

// close ends the match. mutual marks a draw by agreement; withDecks
// controls whether per-card battle stats are credited, and surrenders
// and agreed draws skip them.
func (m *Match) close(winnerId int64, mutual, surrender, withDecks bool) *MatchRecord {
	m.phase = PhaseGameOver
	m.winner = winnerId
	m.surrender = surrender
	m.mutualDraw = mutual

	rec := &MatchRecord{
		MatchId:   m.Id,
		Player1:   m.sides[0].player.UserId,
		Player2:   m.sides[1].player.UserId,
		WinnerId:  winnerId,
		Draw:      winnerId == 0,
		Surrender: surrender,
		Wins1:     m.sides[0].wins,
		Wins2:     m.sides[1].wins,
		Draws:     m.draws,
		Rounds:    m.round,
		StartedAt: m.startedAt,
		EndedAt:   time.Now(),
	}
	if withDecks {
		rec.Deck1 = deckIds(m.sides[0].deck)
		rec.Deck2 = deckIds(m.sides[1].deck)
	}
	return rec
}

func deckIds(deck []*models.Card) []int64 {
	ids := make([]int64, len(deck))
	for i, c := range deck {
		ids[i] = c.CardId
	}
	return ids
}

func (m *Match) transition(notes ...Note) *Transition {
	return &Transition{View: m.view(), Notes: notes}
}

func (m *Match) view() *StateView {
	v := &StateView{
		MatchId:    m.Id,
		Phase:      m.phase,
		Round:      m.round,
		Draws:      m.draws,
		TurnUserId: m.sides[m.turn].player.UserId,
		Outcome:    m.outcome,
	}
	for i := range m.sides {
		s := &m.sides[i]
		sv := SideView{
			UserId:           s.player.UserId,
			Name:             s.player.Name,
			Wins:             s.wins,
			CardChosen:       s.card != nil,
			DrawOffered:      s.drawOffered,
			SurrenderPending: s.surrenderPending,
		}
		if m.phase == PhaseCardSelect || m.phase == PhaseResult {
			sv.Tactic = s.tactic
		}
		if m.phase == PhaseCardSelect && s.card == nil {
			sv.Available = s.unused()
		}
		v.Sides[i] = sv
	}
	if m.phase == PhaseGameOver {
		v.WinnerId = m.winner
		v.Surrender = m.surrender
		v.MutualDraw = m.mutualDraw
	}
	return v
}
