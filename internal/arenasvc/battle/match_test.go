package battle

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mihretdev/cardarena-services/internal/arenasvc/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCard(id int64, atk, def, spd, overall int) *models.Card {
	return &models.Card{
		CardId:    id,
		SubjectId: id,
		Name:      fmt.Sprintf("card-%d", id),
		Attack:    atk,
		Defense:   def,
		Speed:     spd,
		Overall:   overall,
		Rarity:    models.DeriveRarity(overall),
		CardType:  models.TypeStandard,
	}
}

func strongDeck() []*models.Card {
	deck := make([]*models.Card, models.DeckSize)
	for i := range deck {
		deck[i] = newCard(int64(11+i), 90, 90, 90, 88)
	}
	return deck
}

func weakDeck() []*models.Card {
	deck := make([]*models.Card, models.DeckSize)
	for i := range deck {
		deck[i] = newCard(int64(21+i), 10, 10, 10, 72)
	}
	return deck
}

func startMatch(t *testing.T, deck1, deck2 []*models.Card) *Match {
	t.Helper()
	m := NewMatch("m-test", Participant{UserId: 1, Name: "alice"}, Participant{UserId: 2, Name: "bob"})

	tr, err := m.Apply(SelectDeck{UserId: 1, Cards: deck1})
	require.NoError(t, err)
	require.Equal(t, PhaseSetup, tr.View.Phase)

	tr, err = m.Apply(SelectDeck{UserId: 2, Cards: deck2})
	require.NoError(t, err)
	require.Equal(t, PhaseAction, tr.View.Phase)
	require.Equal(t, 1, tr.View.Round)
	return m
}

// playRound drives one full round with the current turn holder picking
// the attack tactic, and returns the resolving transition.
func playRound(t *testing.T, m *Match, card1, card2 int64) *Transition {
	t.Helper()
	holder := m.view().TurnUserId

	tr, err := m.Apply(ChooseTactic{UserId: holder, Tactic: TacticAttack})
	require.NoError(t, err)
	require.Equal(t, PhaseCardSelect, tr.View.Phase)

	_, err = m.Apply(ChooseCard{UserId: 1, CardId: card1})
	require.NoError(t, err)
	tr, err = m.Apply(ChooseCard{UserId: 2, CardId: card2})
	require.NoError(t, err)
	return tr
}

func readyBoth(t *testing.T, m *Match) *Transition {
	t.Helper()
	_, err := m.Apply(Ready{UserId: 1})
	require.NoError(t, err)
	tr, err := m.Apply(Ready{UserId: 2})
	require.NoError(t, err)
	return tr
}

func TestMatchFirstToThree(t *testing.T) {
	m := startMatch(t, strongDeck(), weakDeck())

	tr := playRound(t, m, 11, 21)
	require.Equal(t, PhaseResult, tr.View.Phase)
	require.NotNil(t, tr.Round)
	assert.Equal(t, int64(1), tr.Round.WinnerId)
	assert.Equal(t, 1, tr.View.Sides[0].Wins)
	assert.Nil(t, tr.Match)

	tr = readyBoth(t, m)
	require.Equal(t, PhaseAction, tr.View.Phase)
	assert.Equal(t, 2, tr.View.Round)
	assert.Equal(t, int64(2), tr.View.TurnUserId, "turn hands over between rounds")

	playRound(t, m, 12, 22)
	readyBoth(t, m)

	tr = playRound(t, m, 13, 23)
	require.Equal(t, PhaseGameOver, tr.View.Phase)
	require.NotNil(t, tr.Round)
	require.NotNil(t, tr.Match)
	assert.Equal(t, int64(1), tr.Match.WinnerId)
	assert.Equal(t, 3, tr.Match.Wins1)
	assert.Equal(t, 0, tr.Match.Wins2)
	assert.Equal(t, 3, tr.Match.Rounds)
	assert.False(t, tr.Match.Surrender)
	assert.Len(t, tr.Match.Deck1, models.DeckSize)
	assert.Len(t, tr.Match.Deck2, models.DeckSize)
}

func TestOpponentTacticIsForced(t *testing.T) {
	m := startMatch(t, strongDeck(), weakDeck())

	tr, err := m.Apply(ChooseTactic{UserId: 1, Tactic: TacticDefense})
	require.NoError(t, err)
	assert.Equal(t, TacticDefense, tr.View.Sides[0].Tactic)
	assert.Equal(t, TacticAttack, tr.View.Sides[1].Tactic)

	assert.Equal(t, TacticSpeed, Counter(TacticSpeed))
}

func TestTacticRejectedOffTurn(t *testing.T) {
	m := startMatch(t, strongDeck(), weakDeck())

	_, err := m.Apply(ChooseTactic{UserId: 2, Tactic: TacticAttack})
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = m.Apply(ChooseTactic{UserId: 7, Tactic: TacticAttack})
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestRoundTiebreakByOverall(t *testing.T) {
	deck1 := strongDeck()
	deck2 := weakDeck()
	// Equal contested stats, side 2 holds the higher overall.
	deck1[0] = newCard(11, 50, 50, 50, 80)
	deck2[0] = newCard(21, 50, 50, 50, 85)
	m := startMatch(t, deck1, deck2)

	tr := playRound(t, m, 11, 21)
	require.NotNil(t, tr.Round)
	assert.Equal(t, int64(2), tr.Round.WinnerId)
	require.NotNil(t, tr.View.Outcome)
	assert.True(t, tr.View.Outcome.ByOverall)
}

func TestRoundFullTieIsDraw(t *testing.T) {
	deck1 := strongDeck()
	deck2 := weakDeck()
	deck1[0] = newCard(11, 50, 50, 50, 80)
	deck2[0] = newCard(21, 50, 50, 50, 80)
	m := startMatch(t, deck1, deck2)

	tr := playRound(t, m, 11, 21)
	require.NotNil(t, tr.Round)
	assert.Equal(t, int64(0), tr.Round.WinnerId)
	assert.Equal(t, 1, tr.View.Draws)
	assert.Equal(t, 0, tr.View.Sides[0].Wins)
	assert.Equal(t, 0, tr.View.Sides[1].Wins)
}

func TestResultRedisplayEmitsNoRecord(t *testing.T) {
	m := startMatch(t, strongDeck(), weakDeck())

	tr := playRound(t, m, 11, 21)
	require.NotNil(t, tr.Round)

	tr2, err := m.Apply(Redisplay{UserId: 1})
	require.NoError(t, err)
	assert.Nil(t, tr2.Round, "re-entering the result must not re-emit the record")
	assert.Nil(t, tr2.Match)
	require.NotNil(t, tr2.View.Outcome)
	assert.Equal(t, tr.View.Outcome.Round, tr2.View.Outcome.Round)
	assert.Equal(t, 1, tr2.View.Sides[0].Wins, "score counted once")
}

func TestCardCannotBeReused(t *testing.T) {
	m := startMatch(t, strongDeck(), weakDeck())
	playRound(t, m, 11, 21)
	readyBoth(t, m)

	holder := m.view().TurnUserId
	_, err := m.Apply(ChooseTactic{UserId: holder, Tactic: TacticSpeed})
	require.NoError(t, err)

	_, err = m.Apply(ChooseCard{UserId: 1, CardId: 11})
	assert.ErrorIs(t, err, ErrCardUsed)

	_, err = m.Apply(ChooseCard{UserId: 1, CardId: 99})
	assert.ErrorIs(t, err, ErrCardNotInDeck)
}

func TestSurrenderMidMatch(t *testing.T) {
	m := startMatch(t, strongDeck(), weakDeck())
	playRound(t, m, 11, 21)
	readyBoth(t, m)

	_, err := m.Apply(ConfirmSurrender{UserId: 2})
	assert.ErrorIs(t, err, ErrNoSurrender, "confirmation needs a pending request")

	tr, err := m.Apply(RequestSurrender{UserId: 2})
	require.NoError(t, err)
	assert.True(t, tr.View.Sides[1].SurrenderPending)

	tr, err = m.Apply(ConfirmSurrender{UserId: 2})
	require.NoError(t, err)
	require.NotNil(t, tr.Match)
	assert.Equal(t, PhaseGameOver, tr.View.Phase)
	assert.Equal(t, int64(1), tr.Match.WinnerId)
	assert.True(t, tr.Match.Surrender)
	assert.Nil(t, tr.Match.Deck1, "surrender skips per-card battle stats")
	assert.Nil(t, tr.Match.Deck2)
}

func TestSurrenderCancelResumesPlay(t *testing.T) {
	m := startMatch(t, strongDeck(), weakDeck())

	_, err := m.Apply(RequestSurrender{UserId: 1})
	require.NoError(t, err)
	tr, err := m.Apply(CancelSurrender{UserId: 1})
	require.NoError(t, err)
	assert.False(t, tr.View.Sides[0].SurrenderPending)
	assert.Equal(t, PhaseAction, tr.View.Phase)
}

func TestMutualDraw(t *testing.T) {
	m := startMatch(t, strongDeck(), weakDeck())

	tr, err := m.Apply(OfferDraw{UserId: 1})
	require.NoError(t, err)
	assert.Nil(t, tr.Match)
	require.Len(t, tr.Notes, 1)
	assert.Equal(t, int64(2), tr.Notes[0].UserId)

	// Repeating the offer changes nothing.
	tr, err = m.Apply(OfferDraw{UserId: 1})
	require.NoError(t, err)
	assert.Nil(t, tr.Match)

	tr, err = m.Apply(OfferDraw{UserId: 2})
	require.NoError(t, err)
	require.NotNil(t, tr.Match)
	assert.True(t, tr.Match.Draw)
	assert.Equal(t, int64(0), tr.Match.WinnerId)
	assert.True(t, tr.View.MutualDraw)
	assert.Nil(t, tr.Match.Deck1)
}

func TestDeckSizeEnforced(t *testing.T) {
	m := NewMatch("m-short", Participant{UserId: 1}, Participant{UserId: 2})
	_, err := m.Apply(SelectDeck{UserId: 1, Cards: strongDeck()[:3]})
	assert.ErrorIs(t, err, ErrDeckSize)
}

type fakeStore struct {
	rounds    []*RoundRecord
	matches   []*MatchRecord
	failMatch error
}

func (f *fakeStore) RecordRound(_ context.Context, rec *RoundRecord) error {
	f.rounds = append(f.rounds, rec)
	return nil
}

func (f *fakeStore) RecordMatch(_ context.Context, rec *MatchRecord) error {
	if f.failMatch != nil {
		return f.failMatch
	}
	f.matches = append(f.matches, rec)
	return nil
}

func TestManagerLifecycle(t *testing.T) {
	store := &fakeStore{}
	mg := NewManager(store, nil, nil)
	ctx := context.Background()

	m, err := mg.Create(Participant{UserId: 1, Name: "alice"}, Participant{UserId: 2, Name: "bob"})
	require.NoError(t, err)

	_, err = mg.Create(Participant{UserId: 1, Name: "alice"}, Participant{UserId: 3, Name: "carol"})
	assert.ErrorIs(t, err, ErrMatchInProgress)

	_, err = mg.Dispatch(ctx, SelectDeck{UserId: 1, Cards: strongDeck()})
	require.NoError(t, err)
	_, err = mg.Dispatch(ctx, SelectDeck{UserId: 2, Cards: weakDeck()})
	require.NoError(t, err)

	for round := 0; round < 3; round++ {
		holder := m.view().TurnUserId
		_, err = mg.Dispatch(ctx, ChooseTactic{UserId: holder, Tactic: TacticAttack})
		require.NoError(t, err)
		_, err = mg.Dispatch(ctx, ChooseCard{UserId: 1, CardId: int64(11 + round)})
		require.NoError(t, err)
		tr, err := mg.Dispatch(ctx, ChooseCard{UserId: 2, CardId: int64(21 + round)})
		require.NoError(t, err)
		if tr.View.Phase == PhaseResult {
			_, err = mg.Dispatch(ctx, Ready{UserId: 1})
			require.NoError(t, err)
			_, err = mg.Dispatch(ctx, Ready{UserId: 2})
			require.NoError(t, err)
		}
	}

	assert.Len(t, store.rounds, 3)
	require.Len(t, store.matches, 1)
	assert.Equal(t, int64(1), store.matches[0].WinnerId)

	_, live := mg.ForUser(1)
	assert.False(t, live, "finished match is dropped from the index")

	_, err = mg.Dispatch(ctx, Ready{UserId: 1})
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestFailedResultCommitKeepsMatchForRetry(t *testing.T) {
	store := &fakeStore{failMatch: errors.New("db down")}
	mg := NewManager(store, nil, nil)
	ctx := context.Background()

	m, err := mg.Create(Participant{UserId: 1, Name: "alice"}, Participant{UserId: 2, Name: "bob"})
	require.NoError(t, err)
	_, err = mg.Dispatch(ctx, SelectDeck{UserId: 1, Cards: strongDeck()})
	require.NoError(t, err)
	_, err = mg.Dispatch(ctx, SelectDeck{UserId: 2, Cards: weakDeck()})
	require.NoError(t, err)

	var last *Transition
	for round := 0; round < 3; round++ {
		holder := m.view().TurnUserId
		_, err = mg.Dispatch(ctx, ChooseTactic{UserId: holder, Tactic: TacticAttack})
		require.NoError(t, err)
		_, err = mg.Dispatch(ctx, ChooseCard{UserId: 1, CardId: int64(11 + round)})
		require.NoError(t, err)
		last, err = mg.Dispatch(ctx, ChooseCard{UserId: 2, CardId: int64(21 + round)})
		require.NoError(t, err)
		if last.View.Phase == PhaseResult {
			_, err = mg.Dispatch(ctx, Ready{UserId: 1})
			require.NoError(t, err)
			last, err = mg.Dispatch(ctx, Ready{UserId: 2})
			require.NoError(t, err)
		}
	}

	require.Equal(t, PhaseGameOver, last.View.Phase)
	assert.Empty(t, store.matches)

	require.NotEmpty(t, last.Notes)
	assert.Contains(t, last.Notes[len(last.Notes)-1].Message, "retried")

	_, live := mg.ForUser(1)
	assert.True(t, live, "unsaved result keeps the match live")

	store.failMatch = nil
	_, err = mg.Dispatch(ctx, Redisplay{UserId: 1})
	require.NoError(t, err)

	require.Len(t, store.matches, 1)
	assert.Equal(t, int64(1), store.matches[0].WinnerId)
	_, live = mg.ForUser(1)
	assert.False(t, live, "committed result drops the match from the index")
}
