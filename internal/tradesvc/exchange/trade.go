package exchange

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrTradeGone    = errors.New("trade offer is gone")
	ErrNotRecipient = errors.New("only the recipient can answer this offer")
)

const tradeTTL = 15 * time.Minute

// TradeOffer is the quick one-for-one swap: my card for yours, take it
// or leave it.
type TradeOffer struct {
	Id          string
	From        Party
	To          Party
	OfferCardId int64
	WantCardId  int64
	ExpiresAt   time.Time
}

// TradeBook holds open one-for-one offers. Accepting an offer settles
// it through the same settler the exchange sessions use.
type TradeBook struct {
	verifier Verifier
	settler  Settler
	offers   sync.Map // trade id -> *TradeOffer
}

func NewTradeBook(verifier Verifier, settler Settler) *TradeBook {
	return &TradeBook{verifier: verifier, settler: settler}
}

// Offer validates both cards and registers the offer.
func (t *TradeBook) Offer(ctx context.Context, from, to Party, offerCardId, wantCardId int64) (*TradeOffer, error) {
	if from.UserId == to.UserId {
		return nil, ErrSelfTrade
	}

	owned, err := t.verifier.OwnsCard(ctx, from.UserId, offerCardId)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, fmt.Errorf("%w: you do not own card %d", ErrVerifyFailed, offerCardId)
	}
	owned, err = t.verifier.OwnsCard(ctx, to.UserId, wantCardId)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, fmt.Errorf("%w: %s does not own card %d", ErrVerifyFailed, to.Name, wantCardId)
	}

	// Neither side may end up with a duplicate copy.
	dup, err := t.verifier.OwnsCard(ctx, to.UserId, offerCardId)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, fmt.Errorf("%w: %s already owns card %d", ErrPartnerOwns, to.Name, offerCardId)
	}
	dup, err = t.verifier.OwnsCard(ctx, from.UserId, wantCardId)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, fmt.Errorf("%w: you already own card %d", ErrPartnerOwns, wantCardId)
	}

	offer := &TradeOffer{
		Id:          uuid.NewString(),
		From:        from,
		To:          to,
		OfferCardId: offerCardId,
		WantCardId:  wantCardId,
		ExpiresAt:   time.Now().Add(tradeTTL),
	}
	t.offers.Store(offer.Id, offer)
	log.Infof("trade %s offered: %d gives %d for %d from %d",
		offer.Id, from.UserId, offerCardId, wantCardId, to.UserId)
	return offer, nil
}

func (t *TradeBook) get(tradeId string) (*TradeOffer, error) {
	v, ok := t.offers.Load(tradeId)
	if !ok {
		return nil, ErrTradeGone
	}
	offer := v.(*TradeOffer)
	if time.Now().After(offer.ExpiresAt) {
		t.offers.Delete(tradeId)
		return nil, ErrTradeGone
	}
	return offer, nil
}

// Accept settles the swap. The settler re-verifies both ownerships in
// its transaction, so a card traded away in the meantime fails cleanly.
func (t *TradeBook) Accept(ctx context.Context, tradeId string, userId int64) (*TradeOffer, error) {
	offer, err := t.get(tradeId)
	if err != nil {
		return nil, err
	}
	if offer.To.UserId != userId {
		return nil, ErrNotRecipient
	}

	settlement := &Settlement{
		Ref: offer.Id,
		A:   PartyTerms{UserId: offer.From.UserId, Name: offer.From.Name, CardIds: []int64{offer.OfferCardId}},
		B:   PartyTerms{UserId: offer.To.UserId, Name: offer.To.Name, CardIds: []int64{offer.WantCardId}},
	}
	if err := t.settler.SettleExchange(ctx, settlement); err != nil {
		t.offers.Delete(tradeId)
		return nil, err
	}

	t.offers.Delete(tradeId)
	log.Infof("trade %s settled", offer.Id)
	return offer, nil
}

// Decline removes the offer; recipient only.
func (t *TradeBook) Decline(tradeId string, userId int64) (*TradeOffer, error) {
	offer, err := t.get(tradeId)
	if err != nil {
		return nil, err
	}
	if offer.To.UserId != userId {
		return nil, ErrNotRecipient
	}
	t.offers.Delete(tradeId)
	return offer, nil
}

// Withdraw removes the offer; sender only.
func (t *TradeBook) Withdraw(tradeId string, userId int64) (*TradeOffer, error) {
	offer, err := t.get(tradeId)
	if err != nil {
		return nil, err
	}
	if offer.From.UserId != userId {
		return nil, ErrNotParty
	}
	t.offers.Delete(tradeId)
	return offer, nil
}

// Sweep drops expired offers; the broker runs it on a ticker.
func (t *TradeBook) Sweep() {
	now := time.Now()
	t.offers.Range(func(k, v any) bool {
		if now.After(v.(*TradeOffer).ExpiresAt) {
			t.offers.Delete(k)
		}
		return true
	})
}
