package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"time"

	config "github.com/mihretdev/cardarena-services/configs"
	arenadb "github.com/mihretdev/cardarena-services/internal/arenasvc/db"
	arenastore "github.com/mihretdev/cardarena-services/internal/arenasvc/store"
	nats "github.com/mihretdev/cardarena-services/internal/nats"
	"github.com/mihretdev/cardarena-services/internal/tradesvc/broker"
	"github.com/mihretdev/cardarena-services/internal/tradesvc/exchange"
	tradestore "github.com/mihretdev/cardarena-services/internal/tradesvc/store"

	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "trade"

var instanceId string

func init() {
	instanceId = "001"
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {

	// pg connection
	dbpool, err := arenadb.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer arenadb.ClosePool()
	log.Printf("pg connection established successfully")

	inventoryStore := arenastore.NewInventoryStore(dbpool)
	balanceStore := arenastore.NewBalanceStore(dbpool)

	verifier := tradestore.NewPoolVerifier(inventoryStore, balanceStore)
	settler := tradestore.NewSettleStore(dbpool, inventoryStore, balanceStore)

	trades := exchange.NewTradeBook(verifier, settler)
	exchanges := exchange.NewManager(verifier, settler)

	// Connect to NATS
	n, err := nats.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}

	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	notifier := broker.InitTelegramNotifier()

	b := broker.NewBroker(n.Conn, trades, exchanges, notifier)

	sub, err := b.Subscribe()
	if err != nil {
		log.Errorf("Error: unable to subscribe %v", err)
		os.Exit(0)
	}

	idleMinutes := 15
	if v, err := strconv.Atoi(os.Getenv("EXCHANGE_IDLE_TIMEOUT_MIN")); err == nil && v > 0 {
		idleMinutes = v
	}
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go b.RunJanitor(janitorCtx, time.Minute, time.Duration(idleMinutes)*time.Minute)

	log.Infof("%s service running", SERVICE_NAME)

	// Wait for interrupt signal to gracefully shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	sub.Unsubscribe()
	stopJanitor()

	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
