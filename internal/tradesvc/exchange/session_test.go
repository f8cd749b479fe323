package exchange

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	owned   map[int64]map[int64]bool // user -> card -> owned
	balance decimal.Decimal
}

func (f *fakeVerifier) OwnsCard(_ context.Context, userId, cardId int64) (bool, error) {
	return f.owned[userId][cardId], nil
}

func (f *fakeVerifier) Balance(_ context.Context, _ int64) (decimal.Decimal, error) {
	return f.balance, nil
}

type fakeSettler struct {
	settled []*Settlement
	fail    error
}

func (f *fakeSettler) SettleExchange(_ context.Context, s *Settlement) error {
	if f.fail != nil {
		return f.fail
	}
	f.settled = append(f.settled, s)
	return nil
}

func newTestVerifier() *fakeVerifier {
	return &fakeVerifier{
		owned: map[int64]map[int64]bool{
			1: {101: true, 102: true},
			2: {201: true, 202: true},
		},
		balance: decimal.NewFromInt(1000),
	}
}

var (
	alice = Party{UserId: 1, Name: "alice"}
	bob   = Party{UserId: 2, Name: "bob"}
)

func TestOfferChangeDropsLocks(t *testing.T) {
	s := NewSession("x1", alice, bob)

	_, err := s.AddCard(1, 101)
	require.NoError(t, err)
	_, err = s.Lock(1)
	require.NoError(t, err)
	v, err := s.Lock(2)
	require.NoError(t, err)
	require.True(t, v.Sides[0].Locked)
	require.True(t, v.Sides[1].Locked)

	// Any change to either offer invalidates both locks.
	v, err = s.AddCard(2, 201)
	require.NoError(t, err)
	assert.False(t, v.Sides[0].Locked)
	assert.False(t, v.Sides[1].Locked)
	assert.False(t, v.Sides[0].Confirmed)

	_, err = s.Lock(1)
	require.NoError(t, err)
	_, err = s.Lock(2)
	require.NoError(t, err)
	v, err = s.SetCoins(1, decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.False(t, v.Sides[1].Locked, "coin change drops the partner's lock too")
}

func TestConfirmRequiresBothLocks(t *testing.T) {
	s := NewSession("x2", alice, bob)

	_, _, err := s.Confirm(1)
	assert.ErrorIs(t, err, ErrNotLocked)

	_, err = s.Lock(1)
	require.NoError(t, err)
	_, _, err = s.Confirm(1)
	assert.ErrorIs(t, err, ErrPartnerUnlock)
}

func TestConfirmAfterRelockRepeats(t *testing.T) {
	s := NewSession("x3", alice, bob)

	_, err := s.Lock(1)
	require.NoError(t, err)
	_, err = s.Lock(2)
	require.NoError(t, err)

	_, settlement, err := s.Confirm(1)
	require.NoError(t, err)
	assert.Nil(t, settlement, "one confirmation is not enough")

	// The partner edits; the earlier confirmation is void.
	_, err = s.AddCard(2, 202)
	require.NoError(t, err)
	_, _, err = s.Confirm(2)
	assert.ErrorIs(t, err, ErrNotLocked)
}

func TestSessionOfferValidation(t *testing.T) {
	s := NewSession("x4", alice, bob)

	_, err := s.AddCard(1, 101)
	require.NoError(t, err)
	_, err = s.AddCard(1, 101)
	assert.ErrorIs(t, err, ErrCardOffered)

	_, err = s.RemoveCard(1, 999)
	assert.ErrorIs(t, err, ErrCardNotOffer)

	_, err = s.SetCoins(1, decimal.NewFromInt(-5))
	assert.ErrorIs(t, err, ErrNegativeCoins)

	_, err = s.AddCard(7, 101)
	assert.ErrorIs(t, err, ErrNotParty)
}

func TestManagerSettlesOnDoubleConfirm(t *testing.T) {
	verifier := newTestVerifier()
	settler := &fakeSettler{}
	m := NewManager(verifier, settler)
	ctx := context.Background()

	_, err := m.Start(alice, alice)
	assert.ErrorIs(t, err, ErrSelfTrade)

	_, err = m.Start(alice, bob)
	require.NoError(t, err)
	_, err = m.Start(alice, Party{UserId: 3})
	assert.ErrorIs(t, err, ErrBusy)

	_, err = m.AddCard(ctx, 1, 101)
	require.NoError(t, err)
	_, err = m.AddCard(ctx, 2, 201)
	require.NoError(t, err)
	_, err = m.SetCoins(ctx, 2, decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = m.Lock(1)
	require.NoError(t, err)
	_, err = m.Lock(2)
	require.NoError(t, err)

	_, settlement, err := m.Confirm(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, settlement)

	view, settlement, err := m.Confirm(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, settlement)
	assert.Equal(t, StateSettled, view.State)
	require.Len(t, settler.settled, 1)

	got := settler.settled[0]
	assert.Equal(t, []int64{101}, got.A.CardIds)
	assert.Equal(t, []int64{201}, got.B.CardIds)
	assert.True(t, got.B.Coins.Equal(decimal.NewFromInt(100)))

	_, live := m.ForUser(1)
	assert.False(t, live, "settled session leaves the index")
}

func TestManagerVerifiesOffers(t *testing.T) {
	verifier := newTestVerifier()
	m := NewManager(verifier, &fakeSettler{})
	ctx := context.Background()

	_, err := m.Start(alice, bob)
	require.NoError(t, err)

	_, err = m.AddCard(ctx, 1, 999)
	assert.ErrorIs(t, err, ErrVerifyFailed)

	_, err = m.SetCoins(ctx, 1, decimal.NewFromInt(5000))
	assert.ErrorIs(t, err, ErrVerifyFailed)
}

func TestManagerRejectsCardPartnerOwns(t *testing.T) {
	verifier := newTestVerifier()
	verifier.owned[2][102] = true // bob holds a copy of alice's card
	m := NewManager(verifier, &fakeSettler{})
	ctx := context.Background()

	_, err := m.Start(alice, bob)
	require.NoError(t, err)

	_, err = m.AddCard(ctx, 1, 102)
	assert.ErrorIs(t, err, ErrPartnerOwns)

	_, err = m.AddCard(ctx, 1, 101)
	assert.NoError(t, err, "a card only the offerer owns is fine")
}

func TestFailedSettlementReopensSession(t *testing.T) {
	verifier := newTestVerifier()
	settler := &fakeSettler{fail: ErrVerifyFailed}
	m := NewManager(verifier, settler)
	ctx := context.Background()

	_, err := m.Start(alice, bob)
	require.NoError(t, err)
	_, err = m.AddCard(ctx, 1, 101)
	require.NoError(t, err)
	_, err = m.Lock(1)
	require.NoError(t, err)
	_, err = m.Lock(2)
	require.NoError(t, err)
	_, _, err = m.Confirm(ctx, 1)
	require.NoError(t, err)

	view, _, err := m.Confirm(ctx, 2)
	assert.ErrorIs(t, err, ErrVerifyFailed)
	assert.Equal(t, StateOpen, view.State, "session survives a stale offer")
	assert.False(t, view.Sides[0].Locked, "locks drop for renegotiation")

	s, live := m.ForUser(1)
	require.True(t, live)
	assert.Equal(t, StateOpen, s.State())
}

func TestTradeBook(t *testing.T) {
	verifier := newTestVerifier()
	settler := &fakeSettler{}
	book := NewTradeBook(verifier, settler)
	ctx := context.Background()

	_, err := book.Offer(ctx, alice, bob, 999, 201)
	assert.ErrorIs(t, err, ErrVerifyFailed)

	offer, err := book.Offer(ctx, alice, bob, 101, 201)
	require.NoError(t, err)

	_, err = book.Accept(ctx, offer.Id, 1)
	assert.ErrorIs(t, err, ErrNotRecipient)

	_, err = book.Withdraw(offer.Id, 2)
	assert.ErrorIs(t, err, ErrNotParty)

	got, err := book.Accept(ctx, offer.Id, 2)
	require.NoError(t, err)
	assert.Equal(t, offer.Id, got.Id)

	require.Len(t, settler.settled, 1)
	s := settler.settled[0]
	assert.Equal(t, []int64{101}, s.A.CardIds)
	assert.Equal(t, []int64{201}, s.B.CardIds)
	assert.True(t, s.A.Coins.IsZero())

	_, err = book.Accept(ctx, offer.Id, 2)
	assert.ErrorIs(t, err, ErrTradeGone)
}

func TestTradeOfferRejectsDuplicateCopies(t *testing.T) {
	verifier := newTestVerifier()
	verifier.owned[2][101] = true // bob already holds alice's card
	verifier.owned[1][202] = true // alice already holds bob's card
	book := NewTradeBook(verifier, &fakeSettler{})
	ctx := context.Background()

	_, err := book.Offer(ctx, alice, bob, 101, 201)
	assert.ErrorIs(t, err, ErrPartnerOwns)

	_, err = book.Offer(ctx, alice, bob, 102, 202)
	assert.ErrorIs(t, err, ErrPartnerOwns)

	_, err = book.Offer(ctx, alice, bob, 102, 201)
	assert.NoError(t, err)
}
