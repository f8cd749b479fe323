package broker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mihretdev/cardarena-services/internal/comm"
	"github.com/mihretdev/cardarena-services/internal/tradesvc/exchange"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Broker consumes trade and exchange commands from NATS.
type Broker struct {
	Conn      *nats.Conn
	trades    *exchange.TradeBook
	exchanges *exchange.Manager
	notifier  *TelegramNotifier
}

func NewBroker(nc *nats.Conn, trades *exchange.TradeBook, exchanges *exchange.Manager, notifier *TelegramNotifier) *Broker {
	return &Broker{
		Conn:      nc,
		trades:    trades,
		exchanges: exchanges,
		notifier:  notifier,
	}
}

func (b *Broker) Subscribe() (*nats.Subscription, error) {
	return b.Conn.Subscribe(comm.SubjectTrade, b.handleMessage)
}

func (b *Broker) handleMessage(msgNat *nats.Msg) {
	msg := &comm.WSMessage{}
	if err := json.Unmarshal(msgNat.Data, msg); err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch msg.Type {
	case "trade-offer", "trade-accept", "trade-decline", "trade-withdraw":
		var req comm.TradeRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding trade request: %s", err)
			return
		}
		b.handleTrade(ctx, msg.Type, req, msg.SocketId)
	case "exchange-start", "exchange-add-card", "exchange-remove-card",
		"exchange-coins", "exchange-clear", "exchange-lock",
		"exchange-confirm", "exchange-cancel", "exchange-view":
		var req comm.ExchangeAction
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding exchange request: %s", err)
			return
		}
		b.handleExchange(ctx, msg.Type, req, msg.SocketId)
	default:
		log.Errorf("Unknown message type %q", msg.Type)
	}
}

func (b *Broker) handleTrade(ctx context.Context, msgType string, req comm.TradeRequest, socketId string) {
	switch msgType {
	case "trade-offer":
		from := exchange.Party{UserId: req.FromUserId, Name: req.FromName}
		to := exchange.Party{UserId: req.ToUserId, Name: req.ToName}
		offer, err := b.trades.Offer(ctx, from, to, req.OfferCardId, req.WantCardId)
		if err != nil {
			b.publishErr(tradeErrMessage(err), socketId)
			return
		}
		b.publish("trade-offer-response", tradeData(offer), socketId)

	case "trade-accept":
		offer, err := b.trades.Accept(ctx, req.TradeId, req.UserId)
		if err != nil {
			b.publishErr(tradeErrMessage(err), socketId)
			return
		}
		b.notifier.NotifySettlement(&exchange.Settlement{
			Ref: offer.Id,
			A:   exchange.PartyTerms{UserId: offer.From.UserId, Name: offer.From.Name, CardIds: []int64{offer.OfferCardId}},
			B:   exchange.PartyTerms{UserId: offer.To.UserId, Name: offer.To.Name, CardIds: []int64{offer.WantCardId}},
		})
		b.publish("trade-settled-response", tradeData(offer), socketId)

	case "trade-decline":
		offer, err := b.trades.Decline(req.TradeId, req.UserId)
		if err != nil {
			b.publishErr(tradeErrMessage(err), socketId)
			return
		}
		b.publish("trade-declined-response", tradeData(offer), socketId)

	case "trade-withdraw":
		offer, err := b.trades.Withdraw(req.TradeId, req.UserId)
		if err != nil {
			b.publishErr(tradeErrMessage(err), socketId)
			return
		}
		b.publish("trade-withdrawn-response", tradeData(offer), socketId)
	}
}

func (b *Broker) handleExchange(ctx context.Context, msgType string, req comm.ExchangeAction, socketId string) {
	var view *exchange.View
	var err error

	switch msgType {
	case "exchange-start":
		a := exchange.Party{UserId: req.UserId, Name: req.Name}
		p := exchange.Party{UserId: req.PartnerId, Name: req.PartnerName}
		var s *exchange.Session
		s, err = b.exchanges.Start(a, p)
		if err == nil {
			view = s.Snapshot()
		}
	case "exchange-add-card":
		view, err = b.exchanges.AddCard(ctx, req.UserId, req.CardId)
	case "exchange-remove-card":
		view, err = b.exchanges.RemoveCard(req.UserId, req.CardId)
	case "exchange-coins":
		var amount decimal.Decimal
		amount, err = decimal.NewFromString(req.Coins)
		if err != nil {
			b.publishErr("Invalid coin amount.", socketId)
			return
		}
		view, err = b.exchanges.SetCoins(ctx, req.UserId, amount)
	case "exchange-clear":
		view, err = b.exchanges.ClearOffer(req.UserId)
	case "exchange-lock":
		view, err = b.exchanges.Lock(req.UserId)
	case "exchange-confirm":
		var settlement *exchange.Settlement
		view, settlement, err = b.exchanges.Confirm(ctx, req.UserId)
		if err == nil && settlement != nil {
			b.notifier.NotifySettlement(settlement)
		}
	case "exchange-cancel":
		view, err = b.exchanges.Cancel(req.UserId)
	case "exchange-view":
		s, ok := b.exchanges.ForUser(req.UserId)
		if !ok {
			b.publishErr("You are not in an exchange.", socketId)
			return
		}
		view = s.Snapshot()
	}

	if err != nil {
		b.publishErr(exchangeErrMessage(err), socketId)
		if view != nil {
			b.publish("exchange-response", view, socketId)
		}
		return
	}
	b.publish("exchange-response", view, socketId)
}

// RunJanitor expires idle exchange sessions and stale trade offers.
func (b *Broker) RunJanitor(ctx context.Context, interval, idleAfter time.Duration) {
	go b.exchanges.RunJanitor(ctx, interval, idleAfter, func(s *exchange.Session) {
		b.publish("exchange-response", s.Snapshot(), "")
	})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.trades.Sweep()
		}
	}
}

func tradeData(offer *exchange.TradeOffer) comm.TradeData {
	return comm.TradeData{
		TradeId:     offer.Id,
		FromUserId:  offer.From.UserId,
		FromName:    offer.From.Name,
		ToUserId:    offer.To.UserId,
		ToName:      offer.To.Name,
		OfferCardId: offer.OfferCardId,
		WantCardId:  offer.WantCardId,
		ExpiresAt:   offer.ExpiresAt.UnixMilli(),
	}
}

func tradeErrMessage(err error) string {
	switch {
	case errors.Is(err, exchange.ErrTradeGone):
		return "That trade offer is gone."
	case errors.Is(err, exchange.ErrNotRecipient):
		return "Only the recipient can answer this offer."
	case errors.Is(err, exchange.ErrSelfTrade):
		return "You cannot trade with yourself."
	case errors.Is(err, exchange.ErrVerifyFailed):
		return "A card in this trade changed hands, the offer is void."
	case errors.Is(err, exchange.ErrPartnerOwns):
		return "One of you already owns a copy of that card."
	case errors.Is(err, exchange.ErrNotParty):
		return "That offer is not yours."
	}
	log.Errorf("trade error: %v", err)
	return "Trade failed, try again."
}

func exchangeErrMessage(err error) string {
	switch {
	case errors.Is(err, exchange.ErrSelfTrade):
		return "You cannot exchange with yourself."
	case errors.Is(err, exchange.ErrBusy):
		return "One of you is already in an exchange."
	case errors.Is(err, exchange.ErrNotParty):
		return "You are not in an exchange."
	case errors.Is(err, exchange.ErrClosed):
		return "This exchange is already closed."
	case errors.Is(err, exchange.ErrNotLocked):
		return "Lock your offer before confirming."
	case errors.Is(err, exchange.ErrPartnerUnlock):
		return "Wait for your partner to lock their offer."
	case errors.Is(err, exchange.ErrCardOffered):
		return "That card is already on the table."
	case errors.Is(err, exchange.ErrPartnerOwns):
		return "Your partner already owns a copy of that card."
	case errors.Is(err, exchange.ErrCardNotOffer):
		return "That card is not part of your offer."
	case errors.Is(err, exchange.ErrNegativeCoins):
		return "Coin amounts cannot be negative."
	case errors.Is(err, exchange.ErrVerifyFailed):
		return "An offer went stale, locks were dropped. Check the table and lock again."
	}
	log.Errorf("exchange error: %v", err)
	return "Exchange action failed, try again."
}

func (b *Broker) publish(msgType string, v any, socketId string) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Errorf("unable to marshal %s payload: %s", msgType, err)
		return
	}

	msg := &comm.WSMessage{
		Type:     msgType,
		Data:     data,
		SocketId: socketId,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	if err := b.Conn.Publish(comm.SubjectSocket, payload); err != nil {
		log.Errorf("Error publishing to %s: %s", comm.SubjectSocket, err)
	}
}

func (b *Broker) publishErr(message, socketId string) {
	b.publish("error-response", comm.Res{Status: false, Message: message}, socketId)
}
