package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/eldiiar/arena-lobby/internal/arena"
	"github.com/eldiiar/arena-lobby/internal/config"
	"github.com/eldiiar/arena-lobby/internal/database"
	"github.com/eldiiar/arena-lobby/internal/handler"
	"github.com/eldiiar/arena-lobby/internal/queue"
	"github.com/eldiiar/arena-lobby/internal/repository"
	"github.com/eldiiar/arena-lobby/internal/reveal"
	"github.com/eldiiar/arena-lobby/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs rate limiting, the event list cache and the persisted
	// reveal records. The server degrades gracefully without it.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting, caching and reveal persistence disabled")
	}

	// Consume committed seat allocations off the durable queue.
	go func() {
		if err := queue.StartAllocationConsumer(); err != nil {
			log.Printf("allocation consumer stopped: %v", err)
		}
	}()

	accounts := repository.NewAccountRepo(db)
	events := repository.NewEventRepo(db)
	seats := repository.NewSeatRepo(db)
	tokens := repository.NewTokenRepo(db)
	ledger := repository.NewLedger(db)

	allocator := arena.NewAllocator(ledger)
	directory := arena.NewDirectory(events)

	var reveals *reveal.Scheduler
	if rdb != nil {
		reveals = reveal.NewScheduler(reveal.NewRedisStore(rdb))
	}

	authH := handler.NewAuthHandler(cfg, accounts, tokens, reveals)
	eventH := handler.NewEventHandler(directory, allocator, accounts, events, seats, reveals)
	adminH := handler.NewAdminHandler(accounts, events, tokens)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, eventH, rdb, cfg)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterEvents(e, eventH, rdb, cfg)
	router.RegisterAdmin(e, adminH, cfg)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
