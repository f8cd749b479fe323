package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mihretdev/cardarena-services/internal/arenasvc/models"
	arenastore "github.com/mihretdev/cardarena-services/internal/arenasvc/store"
	"github.com/mihretdev/cardarena-services/internal/comm"
	"github.com/mihretdev/cardarena-services/internal/dropsvc/drop"
	dropstore "github.com/mihretdev/cardarena-services/internal/dropsvc/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	dropCooldown  = 30 * time.Minute
	dropPriority  = 10 * time.Second
	dropExpiry    = 120 * time.Second
	dailyCooldown = 18 * time.Hour
	dailyChoices  = 2
	dailyExpiry   = 10 * time.Minute
	saleExpiry    = 5 * time.Minute
)

// pendingDrop is a card on the floor waiting for a claim. ownerId is
// set on owner-bound grants (daily choices); priorityId gives the
// dropper first claim until unlockAt.
type pendingDrop struct {
	mu         sync.Mutex
	claimed    bool
	card       *models.Card
	choices    []*models.Card
	ownerId    int64
	priorityId int64
	unlockAt   time.Time
	expiresAt  time.Time
}

type pendingSale struct {
	userId    int64
	cardId    int64
	value     int64
	expiresAt time.Time
}

// Broker consumes drop-economy commands from NATS and answers through
// the socket gateway.
type Broker struct {
	Conn      *nats.Conn
	db        *pgxpool.Pool
	engine    *drop.Engine
	cards     *arenastore.CardStore
	inventory *arenastore.InventoryStore
	players   *arenastore.PlayerStore
	balances  *arenastore.BalanceStore
	packs     *dropstore.PackStore

	pendingDrops sync.Map // drop id -> *pendingDrop
	pendingSales sync.Map // sale id -> *pendingSale
	lastDrop     sync.Map // user id -> time.Time
}

func NewBroker(nc *nats.Conn, db *pgxpool.Pool, engine *drop.Engine,
	cards *arenastore.CardStore, inventory *arenastore.InventoryStore,
	players *arenastore.PlayerStore, balances *arenastore.BalanceStore,
	packs *dropstore.PackStore) *Broker {
	return &Broker{
		Conn:      nc,
		db:        db,
		engine:    engine,
		cards:     cards,
		inventory: inventory,
		players:   players,
		balances:  balances,
		packs:     packs,
	}
}

func (b *Broker) Subscribe() (*nats.Subscription, error) {
	return b.Conn.Subscribe(comm.SubjectDrop, b.handleMessage)
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
	case "drop":
		var req comm.UserRef
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding drop request: %s", err)
			return
		}
		b.handleDrop(ctx, req, msg.SocketId)
	case "claim-drop":
		var req comm.ClaimAction
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding claim request: %s", err)
			return
		}
		b.handleClaim(ctx, req, msg.SocketId)
	case "daily":
		var req comm.UserRef
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding daily request: %s", err)
			return
		}
		b.handleDaily(ctx, req, msg.SocketId)
	case "claim-daily":
		var req comm.ClaimAction
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding daily claim: %s", err)
			return
		}
		b.handleClaimDaily(ctx, req, msg.SocketId)
	case "starter-pack":
		var req comm.UserRef
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding starter request: %s", err)
			return
		}
		b.handleStarter(ctx, req, msg.SocketId)
	case "shop":
		b.handleShop(msg.SocketId)
	case "buy-pack":
		var req comm.PackAction
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding buy-pack request: %s", err)
			return
		}
		b.handleBuyPack(ctx, req, msg.SocketId)
	case "open-pack":
		var req comm.PackAction
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding open-pack request: %s", err)
			return
		}
		b.handleOpenPack(ctx, req, msg.SocketId)
	case "packs":
		var req comm.UserRef
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding packs request: %s", err)
			return
		}
		b.handlePacks(ctx, req, msg.SocketId)
	case "sell-card":
		var req comm.SellAction
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding sell request: %s", err)
			return
		}
		b.handleSellCard(ctx, req, msg.SocketId)
	case "confirm-sell":
		var req comm.SellAction
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding sell confirmation: %s", err)
			return
		}
		b.handleConfirmSell(ctx, req, msg.SocketId)
	case "secret":
		var req comm.SecretAction
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding secret request: %s", err)
			return
		}
		b.handleSecret(ctx, req, msg.SocketId)
	case "rebuild-drop-table":
		b.handleRebuild(ctx, msg.SocketId)
	default:
		log.Errorf("Unknown message type %q", msg.Type)
	}
}

func (b *Broker) handleDrop(ctx context.Context, req comm.UserRef, socketId string) {
	if v, ok := b.lastDrop.Load(req.UserId); ok {
		if wait := dropCooldown - time.Since(v.(time.Time)); wait > 0 {
			b.publishErr(fmt.Sprintf("Drop on cooldown, try again in %s.", wait.Round(time.Second)), socketId)
			return
		}
	}

	if _, err := b.players.CreatePlayer(ctx, req.UserId, req.Name); err != nil {
		log.Errorf("Error [PlayerStore.CreatePlayer] %s", err)
		return
	}

	card, ok := b.engine.Pick()
	if !ok {
		b.publishErr("Nothing droppable right now.", socketId)
		return
	}

	b.lastDrop.Store(req.UserId, time.Now())
	data := b.stageDrop(card, req.UserId)
	b.publish("drop-response", data, socketId)
}

// stageDrop registers a claimable drop and returns its announcement.
// priorityId 0 means no claim priority (scheduled drops).
func (b *Broker) stageDrop(card *models.Card, priorityId int64) comm.DropData {
	now := time.Now()
	p := &pendingDrop{
		card:       card,
		priorityId: priorityId,
		expiresAt:  now.Add(dropExpiry),
	}
	if priorityId != 0 {
		p.unlockAt = now.Add(dropPriority)
	}

	dropId := uuid.NewString()
	b.pendingDrops.Store(dropId, p)

	return comm.DropData{
		DropId:     dropId,
		Card:       cardData(card, 0),
		PriorityId: priorityId,
		UnlockAt:   p.unlockAt.UnixMilli(),
		ExpiresAt:  p.expiresAt.UnixMilli(),
	}
}

// AutoDrop stages a public drop with no claim priority; the scheduler
// calls it on a fixed cadence.
func (b *Broker) AutoDrop() {
	card, ok := b.engine.Pick()
	if !ok {
		log.Error("auto drop skipped: empty drop table")
		return
	}
	data := b.stageDrop(card, 0)
	b.publish("drop-response", data, "")
	log.Infof("auto drop staged: %s (#%d)", card.Name, card.CardId)
}

func (b *Broker) handleClaim(ctx context.Context, req comm.ClaimAction, socketId string) {
	v, ok := b.pendingDrops.Load(req.DropId)
	if !ok {
		b.publishErr("That drop is gone.", socketId)
		return
	}
	p := v.(*pendingDrop)

	p.mu.Lock()
	now := time.Now()
	switch {
	case p.claimed:
		p.mu.Unlock()
		b.publishErr("Too slow, someone claimed it first.", socketId)
		return
	case now.After(p.expiresAt):
		p.mu.Unlock()
		b.pendingDrops.Delete(req.DropId)
		b.publishErr("That drop expired.", socketId)
		return
	case now.Before(p.unlockAt) && req.UserId != p.priorityId:
		p.mu.Unlock()
		b.publishErr("The dropper has first claim for a few more seconds.", socketId)
		return
	}
	p.claimed = true
	p.mu.Unlock()

	if _, err := b.players.CreatePlayer(ctx, req.UserId, req.Name); err != nil {
		log.Errorf("Error [PlayerStore.CreatePlayer] %s", err)
	}

	edition, err := b.inventory.MintCard(ctx, req.UserId, p.card.CardId)
	if err != nil {
		p.mu.Lock()
		p.claimed = false
		p.mu.Unlock()
		if errors.Is(err, arenastore.ErrAlreadyOwned) {
			b.publishErr("You already own that card.", socketId)
			return
		}
		log.Errorf("Error [InventoryStore.MintCard] %s", err)
		return
	}
	b.pendingDrops.Delete(req.DropId)

	if err := b.players.IncrementCardsDropped(ctx, req.UserId); err != nil {
		log.Errorf("Error [PlayerStore.IncrementCardsDropped] %s", err)
	}

	b.publish("claim-response", cardData(p.card, edition), socketId)
}

func (b *Broker) handleDaily(ctx context.Context, req comm.UserRef, socketId string) {
	if _, err := b.players.CreatePlayer(ctx, req.UserId, req.Name); err != nil {
		log.Errorf("Error [PlayerStore.CreatePlayer] %s", err)
		return
	}

	wait, err := b.players.ClaimDaily(ctx, req.UserId, dailyCooldown)
	if err != nil {
		log.Errorf("Error [PlayerStore.ClaimDaily] %s", err)
		return
	}
	if wait > 0 {
		b.publishErr(fmt.Sprintf("Daily already claimed, next one in %s.", wait.Round(time.Minute)), socketId)
		return
	}

	owned, err := b.ownedSet(ctx, req.UserId)
	if err != nil {
		log.Errorf("Error loading inventory for daily: %s", err)
		return
	}

	choices, ok := b.engine.DailyChoices(dailyChoices, owned)
	if !ok {
		b.publishErr("No cards left for you to pull. Impressive.", socketId)
		return
	}

	now := time.Now()
	p := &pendingDrop{
		choices:   choices,
		ownerId:   req.UserId,
		expiresAt: now.Add(dailyExpiry),
	}
	dropId := uuid.NewString()
	b.pendingDrops.Store(dropId, p)

	data := comm.DailyData{
		DropId:    dropId,
		ExpiresAt: p.expiresAt.UnixMilli(),
	}
	for _, c := range choices {
		data.Cards = append(data.Cards, cardData(c, 0))
	}
	b.publish("daily-response", data, socketId)
}

func (b *Broker) handleClaimDaily(ctx context.Context, req comm.ClaimAction, socketId string) {
	v, ok := b.pendingDrops.Load(req.DropId)
	if !ok {
		b.publishErr("That daily offer is gone.", socketId)
		return
	}
	p := v.(*pendingDrop)

	p.mu.Lock()
	var picked *models.Card
	for _, c := range p.choices {
		if c.CardId == req.CardId {
			picked = c
			break
		}
	}
	switch {
	case p.ownerId != req.UserId:
		p.mu.Unlock()
		b.publishErr("That daily is not yours.", socketId)
		return
	case p.claimed:
		p.mu.Unlock()
		b.publishErr("You already picked your daily card.", socketId)
		return
	case time.Now().After(p.expiresAt):
		p.mu.Unlock()
		b.pendingDrops.Delete(req.DropId)
		b.publishErr("That daily offer expired.", socketId)
		return
	case picked == nil:
		p.mu.Unlock()
		b.publishErr("Pick one of the offered cards.", socketId)
		return
	}
	p.claimed = true
	p.mu.Unlock()

	edition, err := b.inventory.MintCard(ctx, req.UserId, picked.CardId)
	if err != nil {
		p.mu.Lock()
		p.claimed = false
		p.mu.Unlock()
		log.Errorf("Error [InventoryStore.MintCard] %s", err)
		return
	}
	b.pendingDrops.Delete(req.DropId)

	b.publish("claim-daily-response", cardData(picked, edition), socketId)
}

func (b *Broker) handleStarter(ctx context.Context, req comm.UserRef, socketId string) {
	if _, err := b.players.CreatePlayer(ctx, req.UserId, req.Name); err != nil {
		log.Errorf("Error [PlayerStore.CreatePlayer] %s", err)
		return
	}

	owned, err := b.ownedSet(ctx, req.UserId)
	if err != nil {
		log.Errorf("Error loading inventory for starter: %s", err)
		return
	}

	set, ok := b.engine.StarterSet(owned)
	if !ok {
		b.publishErr("The catalog cannot fill a starter set right now.", socketId)
		return
	}

	if err := b.players.ClaimStarter(ctx, req.UserId); err != nil {
		if errors.Is(err, arenastore.ErrNotFound) {
			b.publishErr("You already claimed your starter collection.", socketId)
			return
		}
		log.Errorf("Error [PlayerStore.ClaimStarter] %s", err)
		return
	}

	data := comm.PackOpenData{PackName: "Starter Collection"}
	for _, c := range set {
		edition, err := b.inventory.MintCard(ctx, req.UserId, c.CardId)
		if err != nil {
			log.Errorf("Error minting starter card %d: %s", c.CardId, err)
			continue
		}
		data.Cards = append(data.Cards, cardData(c, edition))
	}
	b.publish("starter-pack-response", data, socketId)
}

func (b *Broker) handleShop(socketId string) {
	var entries []comm.PackShopEntry
	for _, p := range drop.Packs {
		if !p.Buyable {
			continue
		}
		entries = append(entries, comm.PackShopEntry{PackId: p.PackId, Name: p.Name, Cost: p.Cost})
	}
	b.publish("shop-response", entries, socketId)
}

func (b *Broker) handleBuyPack(ctx context.Context, req comm.PackAction, socketId string) {
	pack, ok := drop.PackById(req.PackId)
	if !ok || !pack.Buyable {
		b.publishErr("That pack is not for sale.", socketId)
		return
	}

	tx, err := b.db.Begin(ctx)
	if err != nil {
		log.Errorf("Error begin tx: %s", err)
		return
	}
	defer tx.Rollback(ctx)

	err = b.balances.Debit(ctx, tx, req.UserId, decimal.NewFromInt(pack.Cost), "pack-purchase", pack.Name)
	if err != nil {
		if errors.Is(err, arenastore.ErrInsufficientCoins) {
			b.publishErr(fmt.Sprintf("Not enough coins, the %s costs %d.", pack.Name, pack.Cost), socketId)
			return
		}
		log.Errorf("Error [BalanceStore.Debit] %s", err)
		return
	}
	if err := b.packs.AddPack(ctx, tx, req.UserId, pack.PackId); err != nil {
		log.Errorf("Error [PackStore.AddPack] %s", err)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		log.Errorf("Error commit tx: %s", err)
		return
	}

	b.publish("buy-pack-response", comm.Res{Status: true, Message: pack.Name + " added to your packs."}, socketId)
}

func (b *Broker) handleOpenPack(ctx context.Context, req comm.PackAction, socketId string) {
	pack, ok := drop.PackById(req.PackId)
	if !ok {
		b.publishErr("Unknown pack.", socketId)
		return
	}

	tx, err := b.db.Begin(ctx)
	if err != nil {
		log.Errorf("Error begin tx: %s", err)
		return
	}
	defer tx.Rollback(ctx)

	if err := b.packs.ConsumePack(ctx, tx, req.UserId, pack.PackId); err != nil {
		if errors.Is(err, dropstore.ErrNoPack) {
			b.publishErr("You have no "+pack.Name+" to open.", socketId)
			return
		}
		log.Errorf("Error [PackStore.ConsumePack] %s", err)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		log.Errorf("Error commit tx: %s", err)
		return
	}

	owned, err := b.ownedSet(ctx, req.UserId)
	if err != nil {
		log.Errorf("Error loading inventory for pack opening: %s", err)
		return
	}

	cards, ok := b.engine.OpenPack(pack.PackId, owned)
	if !ok {
		b.refundPack(ctx, req.UserId, pack.PackId)
		b.publishErr("The catalog cannot fill that pack for you right now.", socketId)
		return
	}

	data := comm.PackOpenData{PackName: pack.Name}
	for _, c := range cards {
		edition, err := b.inventory.MintCard(ctx, req.UserId, c.CardId)
		if err != nil {
			log.Errorf("Error minting pack card %d: %s", c.CardId, err)
			continue
		}
		data.Cards = append(data.Cards, cardData(c, edition))
	}
	b.publish("open-pack-response", data, socketId)
}

func (b *Broker) refundPack(ctx context.Context, userId int64, packId int) {
	tx, err := b.db.Begin(ctx)
	if err != nil {
		log.Errorf("Error begin refund tx: %s", err)
		return
	}
	defer tx.Rollback(ctx)

	if err := b.packs.AddPack(ctx, tx, userId, packId); err != nil {
		log.Errorf("Error refunding pack %d: %s", packId, err)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		log.Errorf("Error commit refund tx: %s", err)
	}
}

func (b *Broker) handlePacks(ctx context.Context, req comm.UserRef, socketId string) {
	holdings, err := b.packs.ListHoldings(ctx, req.UserId)
	if err != nil {
		log.Errorf("Error [PackStore.ListHoldings] %s", err)
		return
	}

	var out []comm.PackHolding
	for _, h := range holdings {
		pack, ok := drop.PackById(h.PackId)
		if !ok {
			continue
		}
		out = append(out, comm.PackHolding{PackId: h.PackId, Name: pack.Name, Quantity: h.Quantity})
	}
	b.publish("packs-response", out, socketId)
}

func (b *Broker) handleSellCard(ctx context.Context, req comm.SellAction, socketId string) {
	owned, err := b.inventory.OwnsCard(ctx, req.UserId, req.CardId)
	if err != nil {
		log.Errorf("Error [InventoryStore.OwnsCard] %s", err)
		return
	}
	if !owned {
		b.publishErr("You do not own that card.", socketId)
		return
	}

	card, err := b.cards.GetCardById(ctx, req.CardId)
	if err != nil {
		log.Errorf("Error [CardStore.GetCardById] %s", err)
		return
	}

	saleId := uuid.NewString()
	value := drop.SaleValue(card)
	b.pendingSales.Store(saleId, &pendingSale{
		userId:    req.UserId,
		cardId:    req.CardId,
		value:     value,
		expiresAt: time.Now().Add(saleExpiry),
	})

	b.publish("sell-quote-response", comm.SellQuote{
		SaleId:    saleId,
		Card:      cardData(card, 0),
		SaleValue: value,
	}, socketId)
}

// Hidden code words worth a one-time coin grant. Each code burns one
// bit of players.secret_flags.
var secretRewards = map[string]struct {
	bit    int
	reward int64
}{
	"the-first-edition": {1, 500},
	"grand-arena-61":    {2, 750},
}

func (b *Broker) handleSecret(ctx context.Context, req comm.SecretAction, socketId string) {
	secret, ok := secretRewards[req.Code]
	if !ok {
		// Wrong guesses get no reaction at all.
		return
	}

	if _, err := b.players.CreatePlayer(ctx, req.UserId, req.Name); err != nil {
		log.Errorf("Error [PlayerStore.CreatePlayer] %s", err)
		return
	}

	tx, err := b.db.Begin(ctx)
	if err != nil {
		log.Errorf("Error begin tx: %s", err)
		return
	}
	defer tx.Rollback(ctx)

	if err := b.players.ClaimSecret(ctx, tx, req.UserId, secret.bit); err != nil {
		if errors.Is(err, arenastore.ErrSecretClaimed) {
			b.publishErr("You already found that one.", socketId)
			return
		}
		log.Errorf("Error [PlayerStore.ClaimSecret] %s", err)
		return
	}
	if err := b.balances.Credit(ctx, tx, req.UserId, decimal.NewFromInt(secret.reward), "secret-reward", req.Code); err != nil {
		log.Errorf("Error [BalanceStore.Credit] %s", err)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		log.Errorf("Error commit tx: %s", err)
		return
	}

	b.publish("secret-response", comm.Res{
		Status:  true,
		Message: fmt.Sprintf("You found a secret! %d coins are yours.", secret.reward),
	}, socketId)
}

func (b *Broker) handleConfirmSell(ctx context.Context, req comm.SellAction, socketId string) {
	v, ok := b.pendingSales.LoadAndDelete(req.SaleId)
	if !ok {
		b.publishErr("That sale offer is gone.", socketId)
		return
	}
	sale := v.(*pendingSale)
	if sale.userId != req.UserId || time.Now().After(sale.expiresAt) {
		b.publishErr("That sale offer expired.", socketId)
		return
	}

	card, err := b.cards.GetCardById(ctx, sale.cardId)
	if err != nil {
		log.Errorf("Error [CardStore.GetCardById] %s", err)
		return
	}

	tx, err := b.db.Begin(ctx)
	if err != nil {
		log.Errorf("Error begin tx: %s", err)
		return
	}
	defer tx.Rollback(ctx)

	if err := b.inventory.RemoveCard(ctx, tx, sale.userId, sale.cardId); err != nil {
		if errors.Is(err, arenastore.ErrNotOwner) {
			b.publishErr("That card already left your collection.", socketId)
			return
		}
		log.Errorf("Error [InventoryStore.RemoveCard] %s", err)
		return
	}
	if err := b.balances.Credit(ctx, tx, sale.userId, decimal.NewFromInt(sale.value), "card-sale", card.Name); err != nil {
		log.Errorf("Error [BalanceStore.Credit] %s", err)
		return
	}
	if err := b.players.IncrementCardsSold(ctx, tx, sale.userId); err != nil {
		log.Errorf("Error [PlayerStore.IncrementCardsSold] %s", err)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		log.Errorf("Error commit tx: %s", err)
		return
	}

	b.publish("sell-response", comm.Res{
		Status:  true,
		Message: fmt.Sprintf("%s sold for %d coins.", card.Name, sale.value),
	}, socketId)
}

func (b *Broker) handleRebuild(ctx context.Context, socketId string) {
	cards, err := b.cards.ListCards(ctx)
	if err != nil {
		log.Errorf("Error [CardStore.ListCards] %s", err)
		return
	}
	b.engine.Rebuild(cards)
	log.Infof("drop table rebuilt over %d cards", b.engine.Size())
	b.publish("rebuild-drop-table-response", comm.Res{Status: true}, socketId)
}

func (b *Broker) ownedSet(ctx context.Context, userId int64) (map[int64]bool, error) {
	inv, err := b.inventory.GetInventory(ctx, userId)
	if err != nil {
		return nil, err
	}
	owned := make(map[int64]bool, len(inv))
	for _, oc := range inv {
		owned[oc.Card.CardId] = true
	}
	return owned, nil
}

// RunJanitor purges expired pending drops and sales.
func (b *Broker) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			b.pendingDrops.Range(func(k, v any) bool {
				if now.After(v.(*pendingDrop).expiresAt) {
					b.pendingDrops.Delete(k)
				}
				return true
			})
			b.pendingSales.Range(func(k, v any) bool {
				if now.After(v.(*pendingSale).expiresAt) {
					b.pendingSales.Delete(k)
				}
				return true
			})
		}
	}
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
