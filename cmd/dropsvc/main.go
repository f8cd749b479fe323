package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"time"

	config "github.com/mihretdev/cardarena-services/configs"
	arenadb "github.com/mihretdev/cardarena-services/internal/arenasvc/db"
	arenastore "github.com/mihretdev/cardarena-services/internal/arenasvc/store"
	"github.com/mihretdev/cardarena-services/internal/dropsvc/broker"
	"github.com/mihretdev/cardarena-services/internal/dropsvc/drop"
	dropstore "github.com/mihretdev/cardarena-services/internal/dropsvc/store"
	nats "github.com/mihretdev/cardarena-services/internal/nats"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "drop"

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

	cardStore := arenastore.NewCardStore(dbpool)
	inventoryStore := arenastore.NewInventoryStore(dbpool)
	playerStore := arenastore.NewPlayerStore(dbpool)
	balanceStore := arenastore.NewBalanceStore(dbpool)
	packStore := dropstore.NewPackStore(dbpool)

	// load the published catalog into the weighted drop table
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	cards, err := cardStore.ListCards(ctx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to load card catalog: %v", err)
	}
	engine := drop.NewEngine(cards, rand.New(rand.NewSource(time.Now().UnixNano())))
	log.Infof("drop table built with %d droppable cards", engine.Size())

	// Connect to NATS
	n, err := nats.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}

	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	b := broker.NewBroker(n.Conn, dbpool, engine,
		cardStore, inventoryStore, playerStore, balanceStore, packStore)

	sub, err := b.Subscribe()
	if err != nil {
		log.Errorf("Error: unable to subscribe %v", err)
		os.Exit(0)
	}

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go b.RunJanitor(janitorCtx, 30*time.Second)

	// periodic channel drops
	autoMinutes := 30
	if v, err := strconv.Atoi(os.Getenv("DROP_INTERVAL_MIN")); err == nil && v > 0 {
		autoMinutes = v
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(time.Duration(autoMinutes)*time.Minute),
		gocron.NewTask(b.AutoDrop),
	)
	if err != nil {
		log.Fatalf("Failed to schedule auto drop: %v", err)
	}
	sched.Start()
	log.Infof("auto drop scheduled every %d minutes", autoMinutes)

	log.Infof("%s service running", SERVICE_NAME)

	// Wait for interrupt signal to gracefully shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	sub.Unsubscribe()
	stopJanitor()
	if err := sched.Shutdown(); err != nil {
		log.Errorf("scheduler shutdown: %v", err)
	}

	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
