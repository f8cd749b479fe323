package broker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mihretdev/cardarena-services/internal/arenasvc/battle"
	"github.com/mihretdev/cardarena-services/internal/arenasvc/models"
	"github.com/mihretdev/cardarena-services/internal/arenasvc/service"
	"github.com/mihretdev/cardarena-services/internal/arenasvc/store"
	"github.com/mihretdev/cardarena-services/internal/comm"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Broker consumes arena commands from NATS: player lifecycle, cards,
// decks and the battle state machine.
type Broker struct {
	Conn         *nats.Conn
	Players      *service.PlayerService
	Cards        *service.CardService
	Decks        *service.DeckService
	Achievements *service.AchievementService
	Matches      *battle.Manager
}

func NewBroker(nc *nats.Conn, players *service.PlayerService, cards *service.CardService,
	decks *service.DeckService, achievements *service.AchievementService,
	matches *battle.Manager) *Broker {
	b := &Broker{
		Conn:         nc,
		Players:      players,
		Cards:        cards,
		Decks:        decks,
		Achievements: achievements,
		Matches:      matches,
	}

	// Freshly earned achievements go out to everyone in the channel.
	achievements.OnEarned(func(userId int64, a *models.Achievement) {
		b.publish("achievement-response", comm.AchievementData{
			UserId:      userId,
			Title:       a.Title,
			Description: a.Description,
		}, "")
	})
	return b
}

func (b *Broker) Subscribe() (*nats.Subscription, error) {
	return b.Conn.Subscribe(comm.SubjectArena, b.handleMessage)
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
	case "init":
		var req comm.UserRef
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error %s", err)
			return
		}
		b.handleInit(ctx, req, msg.SocketId)
	case "get-balance":
		var req comm.UserRef
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error %s", err)
			return
		}
		b.handleBalance(ctx, req, msg.SocketId)
	case "stats":
		var req comm.UserRef
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error %s", err)
			return
		}
		b.handleStats(ctx, req, msg.SocketId)
	case "collection":
		var req comm.UserRef
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error %s", err)
			return
		}
		b.handleCollection(ctx, req, msg.SocketId)
	case "card-detail":
		var req comm.ClaimAction
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error %s", err)
			return
		}
		b.handleCardDetail(ctx, req, msg.SocketId)
	case "wishlist-toggle":
		var req comm.ClaimAction
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error %s", err)
			return
		}
		b.handleWishlistToggle(ctx, req, msg.SocketId)
	case "set-title":
		var req struct {
			UserId int64  `json:"user_id"`
			Title  string `json:"title"`
		}
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error %s", err)
			return
		}
		b.handleSetTitle(ctx, req.UserId, req.Title, msg.SocketId)
	case "save-deck":
		var req comm.DeckAction
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error %s", err)
			return
		}
		b.handleSaveDeck(ctx, req, msg.SocketId)
	case "decks":
		var req comm.DeckAction
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error %s", err)
			return
		}
		b.handleListDecks(ctx, req, msg.SocketId)
	case "achievements":
		var req comm.UserRef
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error %s", err)
			return
		}
		b.handleAchievements(ctx, req, msg.SocketId)
	case "battle-challenge":
		var req comm.BattleAction
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error %s", err)
			return
		}
		b.handleChallenge(req, msg.SocketId)
	case "battle-deck":
		var req comm.BattleAction
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error %s", err)
			return
		}
		b.handleBattleDeck(ctx, req, msg.SocketId)
	default:
		if ev, ok := b.battleEvent(msg); ok {
			b.dispatchBattle(ctx, ev, msg.SocketId)
			return
		}
		log.Errorf("Unknown message type %q", msg.Type)
	}
}

func (b *Broker) handleInit(ctx context.Context, req comm.UserRef, socketId string) {
	player, err := b.Players.GetOrCreate(ctx, req.UserId, req.Name)
	if err != nil {
		log.Errorf("Error [PlayerService.GetOrCreate] %s", err)
		return
	}
	balance, err := b.Players.Balance(ctx, req.UserId)
	if err != nil {
		log.Errorf("Error [PlayerService.Balance] %s", err)
		return
	}

	b.publish("init-response", comm.PlayerData{
		Name:    player.Name,
		UserId:  player.UserId,
		Balance: balance.StringFixed(2),
		Title:   player.Title,
	}, socketId)
}

func (b *Broker) handleBalance(ctx context.Context, req comm.UserRef, socketId string) {
	balance, err := b.Players.Balance(ctx, req.UserId)
	if err != nil {
		log.Errorf("Error [PlayerService.Balance] %s", err)
		return
	}
	b.publish("balance-response", comm.PlayerData{
		UserId:  req.UserId,
		Balance: balance.StringFixed(2),
	}, socketId)
}

func (b *Broker) handleStats(ctx context.Context, req comm.UserRef, socketId string) {
	profile, err := b.Players.GetProfile(ctx, req.UserId, req.Name)
	if err != nil {
		log.Errorf("Error [PlayerService.GetProfile] %s", err)
		return
	}

	p := profile.Player
	b.publish("stats-response", comm.StatsData{
		Player: comm.PlayerData{
			Name:    p.Name,
			UserId:  p.UserId,
			Balance: profile.Balance.StringFixed(2),
			Title:   p.Title,
		},
		BattlesPlayed: p.BattlesPlayed,
		BattlesWon:    p.BattlesWon,
		BattlesLost:   p.BattlesLost,
		BattlesDrawn:  p.BattlesDrawn,
		RoundsPlayed:  p.RoundsPlayed,
		RoundsWon:     p.RoundsWon,
		RoundsLost:    p.RoundsLost,
		RoundsDrawn:   p.RoundsDrawn,
		CardsSold:     p.CardsSold,
		CardsDropped:  p.CardsDropped,
	}, socketId)
}

func (b *Broker) handleCollection(ctx context.Context, req comm.UserRef, socketId string) {
	owned, err := b.Cards.GetCollection(ctx, req.UserId)
	if err != nil {
		log.Errorf("Error [CardService.GetCollection] %s", err)
		return
	}

	out := make([]comm.CardData, 0, len(owned))
	for _, oc := range owned {
		out = append(out, cardData(&oc.Card, oc.Edition))
	}
	b.publish("collection-response", out, socketId)
}

func (b *Broker) handleCardDetail(ctx context.Context, req comm.ClaimAction, socketId string) {
	detail, err := b.Cards.GetCardDetail(ctx, req.UserId, req.CardId)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			b.publishErr("No such card.", socketId)
			return
		}
		log.Errorf("Error [CardService.GetCardDetail] %s", err)
		return
	}

	b.publish("card-detail-response", struct {
		Card       comm.CardData `json:"card"`
		Owned      bool          `json:"owned"`
		Wishlisted bool          `json:"wishlisted"`
	}{cardData(detail.Card, 0), detail.Owned, detail.Wishlisted}, socketId)
}

func (b *Broker) handleWishlistToggle(ctx context.Context, req comm.ClaimAction, socketId string) {
	wishlisted, err := b.Cards.ToggleWishlist(ctx, req.UserId, req.CardId)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			b.publishErr("No such card.", socketId)
			return
		}
		log.Errorf("Error [CardService.ToggleWishlist] %s", err)
		return
	}

	message := "Card removed from your wishlist."
	if wishlisted {
		message = "Card added to your wishlist."
	}
	b.publish("wishlist-response", comm.Res{Status: wishlisted, Message: message}, socketId)
}

func (b *Broker) handleSetTitle(ctx context.Context, userId int64, title, socketId string) {
	// Only earned achievement titles can be equipped.
	earned, err := b.Achievements.ListEarned(ctx, userId)
	if err != nil {
		log.Errorf("Error [AchievementService.ListEarned] %s", err)
		return
	}
	valid := false
	for _, a := range earned {
		if a.Title == title {
			valid = true
			break
		}
	}
	if !valid {
		b.publishErr("You have not earned that title.", socketId)
		return
	}

	if err := b.Players.SetTitle(ctx, userId, title); err != nil {
		if errors.Is(err, service.ErrBadTitle) {
			b.publishErr("Pick a title up to 32 characters.", socketId)
			return
		}
		log.Errorf("Error [PlayerService.SetTitle] %s", err)
		return
	}
	b.publish("set-title-response", comm.Res{Status: true, Message: "Title updated."}, socketId)
}

func (b *Broker) handleSaveDeck(ctx context.Context, req comm.DeckAction, socketId string) {
	if err := b.Decks.SaveDeck(ctx, req.UserId, req.DeckName, req.CardIds); err != nil {
		b.publishErr(deckErrMessage(err), socketId)
		return
	}
	b.publish("save-deck-response", comm.Res{Status: true, Message: "Deck saved."}, socketId)
}

func (b *Broker) handleListDecks(ctx context.Context, req comm.DeckAction, socketId string) {
	decks, err := b.Decks.ListDecks(ctx, req.UserId)
	if err != nil {
		log.Errorf("Error [DeckService.ListDecks] %s", err)
		return
	}
	b.publish("decks-response", decks, socketId)
}

func (b *Broker) handleAchievements(ctx context.Context, req comm.UserRef, socketId string) {
	earned, err := b.Achievements.ListEarned(ctx, req.UserId)
	if err != nil {
		log.Errorf("Error [AchievementService.ListEarned] %s", err)
		return
	}

	out := make([]comm.AchievementData, 0, len(earned))
	for _, a := range earned {
		out = append(out, comm.AchievementData{
			UserId:      req.UserId,
			Title:       a.Title,
			Description: a.Description,
		})
	}
	b.publish("achievements-response", out, socketId)
}

func (b *Broker) handleChallenge(req comm.BattleAction, socketId string) {
	m, err := b.Matches.Create(
		battle.Participant{UserId: req.UserId, Name: req.Name},
		battle.Participant{UserId: req.OpponentId, Name: req.OpponentName},
	)
	if err != nil {
		b.publishErr(battleErrMessage(err), socketId)
		return
	}

	tr, err := m.Apply(battle.Redisplay{UserId: req.UserId})
	if err != nil {
		log.Errorf("Error rendering new match: %s", err)
		return
	}
	b.publishBattle(tr, socketId)
}

// handleBattleDeck resolves the named deck against the player's
// collection before feeding it to the engine.
func (b *Broker) handleBattleDeck(ctx context.Context, req comm.BattleAction, socketId string) {
	cards, err := b.Decks.ResolveDeck(ctx, req.UserId, req.DeckName)
	if err != nil {
		b.publishErr(deckErrMessage(err), socketId)
		return
	}
	b.dispatchBattle(ctx, battle.SelectDeck{UserId: req.UserId, Cards: cards}, socketId)
}

// battleEvent maps an inbound command to an engine event.
func (b *Broker) battleEvent(msg *comm.WSMessage) (battle.Event, bool) {
	var req comm.BattleAction
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Errorf("Error decoding battle command: %s", err)
		return nil, false
	}

	switch msg.Type {
	case "battle-tactic":
		return battle.ChooseTactic{UserId: req.UserId, Tactic: battle.Tactic(req.Tactic)}, true
	case "battle-card":
		return battle.ChooseCard{UserId: req.UserId, CardId: req.CardId}, true
	case "battle-ready":
		return battle.Ready{UserId: req.UserId}, true
	case "battle-redisplay":
		return battle.Redisplay{UserId: req.UserId}, true
	case "battle-draw":
		return battle.OfferDraw{UserId: req.UserId}, true
	case "battle-surrender":
		return battle.RequestSurrender{UserId: req.UserId}, true
	case "battle-surrender-confirm":
		return battle.ConfirmSurrender{UserId: req.UserId}, true
	case "battle-surrender-cancel":
		return battle.CancelSurrender{UserId: req.UserId}, true
	case "battle-cancel":
		return battle.Cancel{UserId: req.UserId}, true
	}
	return nil, false
}

func (b *Broker) dispatchBattle(ctx context.Context, ev battle.Event, socketId string) {
	tr, err := b.Matches.Dispatch(ctx, ev)
	if err != nil {
		b.publishErr(battleErrMessage(err), socketId)
		return
	}
	b.publishBattle(tr, socketId)
}

// RunJanitor expires idle matches and tells both players.
func (b *Broker) RunJanitor(ctx context.Context, interval, idleAfter time.Duration) {
	b.Matches.RunJanitor(ctx, interval, idleAfter, func(_ *battle.Match, tr *battle.Transition) {
		b.publishBattle(tr, "")
	})
}

func (b *Broker) publishBattle(tr *battle.Transition, socketId string) {
	// State views go to both players; the gateway broadcasts when the
	// socket id is empty.
	b.publish("battle-response", tr.View, "")
	for _, note := range tr.Notes {
		b.publish("battle-note", struct {
			UserId  int64  `json:"user_id"`
			Message string `json:"message"`
		}{note.UserId, note.Message}, socketId)
	}
}

func deckErrMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrDeckSize):
		return "A deck needs exactly five cards."
	case errors.Is(err, service.ErrDuplicateSubject):
		return "A deck cannot hold two prints of the same subject."
	case errors.Is(err, service.ErrCardNotOwned):
		return "Every deck card must be in your collection."
	case errors.Is(err, store.ErrDeckMissing):
		return "No deck by that name."
	}
	log.Errorf("deck error: %v", err)
	return "Deck action failed, try again."
}

func battleErrMessage(err error) string {
	switch {
	case errors.Is(err, battle.ErrMatchInProgress):
		return "One of you is already in a battle."
	case errors.Is(err, battle.ErrNotParticipant):
		return "You are not in a battle."
	case errors.Is(err, battle.ErrNotYourTurn):
		return "It is not your turn to pick the tactic."
	case errors.Is(err, battle.ErrWrongPhase):
		return "You cannot do that right now."
	case errors.Is(err, battle.ErrInvalidTactic):
		return "Pick attack, defense or speed."
	case errors.Is(err, battle.ErrDeckSize):
		return "That deck does not resolve to five cards."
	case errors.Is(err, battle.ErrCardNotInDeck):
		return "That card is not in your battle deck."
	case errors.Is(err, battle.ErrCardUsed):
		return "That card was already played this match."
	case errors.Is(err, battle.ErrAlreadyChosen):
		return "You already picked a card this round."
	case errors.Is(err, battle.ErrNoSurrender):
		return "There is no surrender request to act on."
	}
	log.Errorf("battle error: %v", err)
	return "Battle action failed, try again."
}

func cardData(c *models.Card, edition int64) comm.CardData {
	return comm.CardData{
		CardId:    c.CardId,
		SubjectId: c.SubjectId,
		Name:      c.Name,
		Attack:    c.Attack,
		Defense:   c.Defense,
		Speed:     c.Speed,
		Overall:   c.Overall,
		Rarity:    c.Rarity,
		CardType:  c.CardType,
		Artwork:   c.Artwork,
		Copies:    c.Copies,
		Edition:   edition,
	}
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
