package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"friendlink/config"
	"friendlink/database"
	"friendlink/friends"
	"friendlink/handlers"
	"friendlink/logger"
)

func main() {
	if _, err := config.Load(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.Cfg

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	if err := database.Connect(zlog); err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.CreateTables(context.Background(), database.DB); err != nil {
		zlog.Fatal("failed to create tables", zap.Error(err))
	}

	gin.SetMode(cfg.GinMode)
	svc := friends.NewService(database.NewStore(database.DB), zlog)
	r := handlers.NewRouter(svc, cfg, zlog)

	zlog.Info("server starting", zap.String("addr", cfg.ServerAddr))
	if err := r.Run(cfg.ServerAddr); err != nil {
		zlog.Fatal("failed to start server", zap.Error(err))
	}
}
