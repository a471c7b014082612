package main

import (
	"context"

	"github.com/joho/godotenv"

	"drinkup/internal/app"
	"drinkup/internal/cache"
	"drinkup/internal/config"
	"drinkup/internal/db"
	"drinkup/internal/logger"
	"drinkup/internal/server"
)

func main() {
	_ = godotenv.Load()
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(database, redisCache, log, cfg)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	srv := server.New(appCtx)
	if err := srv.Run(); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
