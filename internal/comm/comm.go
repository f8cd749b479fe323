package comm

import (
	"encoding/json"
	"time"
)

// WSMessage is the envelope every service publishes and consumes. Type
// routes the payload, SocketId identifies the originating client
// connection so responses can be fanned back to it.
type WSMessage struct {
	Type     string          `json:"type"` // e.g. "init", "battle-tactic"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
}

// NATS subjects. Each backend service consumes its cmd subject; the
// gateway consumes push and fans messages out to sockets.
const (
	SubjectArena  = "cmd.arena"
	SubjectDrop   = "cmd.drop"
	SubjectTrade  = "cmd.trade"
	SubjectSocket = "push.socket"
)

type ServiceHeartbeat struct {
	ID        string    `json:"id"` // service id
	Timestamp time.Time `json:"timestamp"`
}

type ServiceShutdown struct {
	ID string `json:"id"` // service id
}

type PlayerData struct {
	Name    string `json:"name"`
	UserId  int64  `json:"user_id"`
	Balance string `json:"balance"`
	Title   string `json:"title,omitempty"`
}

type CardData struct {
	CardId    int64  `json:"card_id"`
	SubjectId int64  `json:"subject_id"`
	Name      string `json:"name"`
	Attack    int    `json:"attack"`
	Defense   int    `json:"defense"`
	Speed     int    `json:"speed"`
	Overall   int    `json:"overall"`
	Rarity    string `json:"rarity"`
	CardType  string `json:"card_type"`
	Artwork   string `json:"artwork"`
	Copies    int64  `json:"copies"`
	Edition   int64  `json:"edition,omitempty"`
}

// Res is a generic ack for operations that only need status + reason.
type Res struct {
	Status  bool   `json:"status"`
	Message string `json:"message,omitempty"`
}

type BalanceStatus struct {
	Status    bool  `json:"status"`
	Timestamp int64 `json:"timestamp"`
}

// DropData announces a claimable card drop.
type DropData struct {
	DropId     string   `json:"drop_id"`
	Card       CardData `json:"card"`
	PriorityId int64    `json:"priority_id,omitempty"` // dropper with first-claim priority
	UnlockAt   int64    `json:"unlock_at,omitempty"`
	ExpiresAt  int64    `json:"expires_at"`
}

// DailyData offers the daily reward choices.
type DailyData struct {
	DropId    string     `json:"drop_id"`
	Cards     []CardData `json:"cards"`
	ExpiresAt int64      `json:"expires_at"`
}

type PackShopEntry struct {
	PackId int    `json:"pack_id"`
	Name   string `json:"name"`
	Cost   int64  `json:"cost"`
}

type PackHolding struct {
	PackId   int    `json:"pack_id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type PackOpenData struct {
	PackName string     `json:"pack_name"`
	Cards    []CardData `json:"cards"`
}

type SellQuote struct {
	SaleId    string   `json:"sale_id"`
	Card      CardData `json:"card"`
	SaleValue int64    `json:"sale_value"`
}

type StatsData struct {
	Player        PlayerData `json:"player"`
	BattlesPlayed int        `json:"battles_played"`
	BattlesWon    int        `json:"battles_won"`
	BattlesLost   int        `json:"battles_lost"`
	BattlesDrawn  int        `json:"battles_drawn"`
	RoundsPlayed  int        `json:"rounds_played"`
	RoundsWon     int        `json:"rounds_won"`
	RoundsLost    int        `json:"rounds_lost"`
	RoundsDrawn   int        `json:"rounds_drawn"`
	CardsSold     int        `json:"cards_sold"`
	CardsDropped  int        `json:"cards_dropped"`
}

type AchievementData struct {
	UserId      int64  `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UserRef identifies the acting user on inbound commands.
type UserRef struct {
	UserId int64  `json:"user_id"`
	Name   string `json:"name"`
}

type ClaimAction struct {
	UserId int64  `json:"user_id"`
	Name   string `json:"name"`
	DropId string `json:"drop_id"`
	CardId int64  `json:"card_id,omitempty"` // daily claims pick one of the offered cards
}

type PackAction struct {
	UserId int64 `json:"user_id"`
	PackId int   `json:"pack_id"`
}

// BattleAction covers every battle command; unused fields stay empty.
type BattleAction struct {
	UserId       int64  `json:"user_id"`
	Name         string `json:"name,omitempty"`
	OpponentId   int64  `json:"opponent_id,omitempty"`
	OpponentName string `json:"opponent_name,omitempty"`
	DeckName     string `json:"deck_name,omitempty"`
	Tactic       string `json:"tactic,omitempty"`
	CardId       int64  `json:"card_id,omitempty"`
}

type DeckAction struct {
	UserId   int64   `json:"user_id"`
	DeckName string  `json:"deck_name,omitempty"`
	CardIds  []int64 `json:"card_ids,omitempty"`
}

// TradeRequest covers the one-for-one trade commands. UserId names
// the responder on accept/decline/withdraw.
type TradeRequest struct {
	FromUserId  int64  `json:"from_user_id,omitempty"`
	FromName    string `json:"from_name,omitempty"`
	ToUserId    int64  `json:"to_user_id,omitempty"`
	ToName      string `json:"to_name,omitempty"`
	OfferCardId int64  `json:"offer_card_id,omitempty"`
	WantCardId  int64  `json:"want_card_id,omitempty"`
	TradeId     string `json:"trade_id,omitempty"`
	UserId      int64  `json:"user_id,omitempty"`
}

type TradeData struct {
	TradeId     string `json:"trade_id"`
	FromUserId  int64  `json:"from_user_id"`
	FromName    string `json:"from_name"`
	ToUserId    int64  `json:"to_user_id"`
	ToName      string `json:"to_name"`
	OfferCardId int64  `json:"offer_card_id"`
	WantCardId  int64  `json:"want_card_id"`
	ExpiresAt   int64  `json:"expires_at"`
}

// ExchangeAction covers every exchange-session command; unused fields
// stay empty.
type ExchangeAction struct {
	UserId      int64  `json:"user_id"`
	Name        string `json:"name,omitempty"`
	PartnerId   int64  `json:"partner_id,omitempty"`
	PartnerName string `json:"partner_name,omitempty"`
	CardId      int64  `json:"card_id,omitempty"`
	Coins       string `json:"coins,omitempty"`
}

// SecretAction carries an easter-egg code word.
type SecretAction struct {
	UserId int64  `json:"user_id"`
	Name   string `json:"name"`
	Code   string `json:"code"`
}

type SellAction struct {
	UserId int64  `json:"user_id"`
	CardId int64  `json:"card_id"`
	SaleId string `json:"sale_id,omitempty"` // set on confirmation
}
