package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"

	config "github.com/mihretdev/cardarena-services/configs"
	"github.com/mihretdev/cardarena-services/internal/arenasvc/battle"
	"github.com/mihretdev/cardarena-services/internal/arenasvc/broker"
	arenadb "github.com/mihretdev/cardarena-services/internal/arenasvc/db"
	handlers "github.com/mihretdev/cardarena-services/internal/arenasvc/handlers"
	"github.com/mihretdev/cardarena-services/internal/arenasvc/service"
	"github.com/mihretdev/cardarena-services/internal/arenasvc/store"
	"github.com/mihretdev/cardarena-services/internal/db"
	nats "github.com/mihretdev/cardarena-services/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "arena"

// archived matches stay queryable for support this long
const matchRetention = 30 * 24 * time.Hour

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

	// mongo holds the expendable match archive
	mdb, cancelMongo, err := db.ConnectToDB()
	if err != nil {
		log.Fatalf("Failed to connect to mongo: %v", err)
	}
	defer cancelMongo()
	db.CreateTTLIndexForCollection(mdb, "match_archive")
	log.Printf("mongo connection established successfully")

	cardStore := store.NewCardStore(dbpool)
	inventoryStore := store.NewInventoryStore(dbpool)
	playerStore := store.NewPlayerStore(dbpool)
	balanceStore := store.NewBalanceStore(dbpool)
	deckStore := store.NewDeckStore(dbpool)
	wishlistStore := store.NewWishlistStore(dbpool)
	achievementStore := store.NewAchievementStore(dbpool)
	matchStore := store.NewMatchStore(dbpool, balanceStore)
	matchLogStore := store.NewMatchLogStore(mdb, matchRetention)

	playerService := service.NewPlayerService(playerStore, balanceStore, matchLogStore)
	cardService := service.NewCardService(cardStore, inventoryStore, wishlistStore)
	deckService := service.NewDeckService(deckStore, cardStore, inventoryStore)
	achievementService := service.NewAchievementService(achievementStore)

	matches := battle.NewManager(matchStore, matchLogStore, achievementService)

	// Connect to NATS
	n, err := nats.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}

	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	b := broker.NewBroker(n.Conn, playerService, cardService, deckService,
		achievementService, matches)

	sub, err := b.Subscribe()
	if err != nil {
		log.Errorf("Error: unable to subscribe %v", err)
		os.Exit(0)
	}

	idleMinutes := 10
	if v, err := strconv.Atoi(os.Getenv("MATCH_IDLE_TIMEOUT_MIN")); err == nil && v > 0 {
		idleMinutes = v
	}
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go b.RunJanitor(janitorCtx, time.Minute, time.Duration(idleMinutes)*time.Minute)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	rateLimitStr := os.Getenv("RATE_LIMIT")
	rateLimit, err := strconv.Atoi(rateLimitStr)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT value: %v", err)
	}
	r.Use(httprate.LimitByIP(rateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(cardService, playerService)
	h.InitAuth()
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + os.Getenv("ARENA_SERVICE_PORT"),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	sub.Unsubscribe()
	stopJanitor()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
