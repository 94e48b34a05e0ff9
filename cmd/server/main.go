package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/hokurail/train-seat-reservation/internal/config"
	"github.com/hokurail/train-seat-reservation/internal/database"
	"github.com/hokurail/train-seat-reservation/internal/handler"
	"github.com/hokurail/train-seat-reservation/internal/payment"
	"github.com/hokurail/train-seat-reservation/internal/queue"
	"github.com/hokurail/train-seat-reservation/internal/repository"
	"github.com/hokurail/train-seat-reservation/internal/router"
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

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; response cache and rate limiting disabled")
	}

	// Background consumer appending completed reservations to the log.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	stations := repository.NewStationRepo(db)
	trains := repository.NewTrainRepo(db)
	seats := repository.NewSeatRepo(db)
	fares := repository.NewFareRepo(db)
	reservations := repository.NewReservationRepo(db)
	users := repository.NewUserRepo(db)
	pay := payment.New(cfg.PaymentAPI)

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users), cfg.JWTSecret)
	router.RegisterPublic(e,
		handler.NewStationHandler(stations),
		handler.NewSettingsHandler(cfg),
		handler.NewTrainHandler(cfg, stations, trains, seats, fares, reservations),
		config.LoadCacheConfig(), rdb)
	router.RegisterReservation(e,
		handler.NewReservationHandler(cfg, stations, trains, seats, fares, reservations, pay),
		cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
