package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/optimistic-todo/internal/config"
	"github.com/BuzzLyutic/optimistic-todo/internal/handler"
	"github.com/BuzzLyutic/optimistic-todo/internal/repo"
	"github.com/BuzzLyutic/optimistic-todo/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	store, closeStore := openStore(cfg, logger)
	defer closeStore()

	r := handler.NewRouter(service.NewItemService(store), handler.RouterConfig{
		Latency:  cfg.Latency,
		DocsPath: cfg.DocsPath,
	}, logger)

	srv := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started",
			zap.String("addr", srv.Addr),
			zap.String("store", cfg.Store),
			zap.Duration("latency", cfg.Latency),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Shutdown error", zap.Error(err))
	}
	logger.Info("Server stopped successfully")
}

func openStore(cfg config.Config, logger *zap.Logger) (repo.ItemRepository, func()) {
	if cfg.Store == config.StoreFile {
		fr, err := repo.NewFileRepo(cfg.DBPath)
		if err != nil {
			logger.Fatal("Failed to open JSON database", zap.String("path", cfg.DBPath), zap.Error(err))
		}
		logger.Info("Using JSON database", zap.String("path", cfg.DBPath))
		return fr, func() {}
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to Database", zap.Error(err))
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		logger.Fatal("Failed to ping the Database", zap.Error(err))
	}
	logger.Info("Successfully connected to the Database")
	return repo.NewItemRepo(pool), pool.Close
}
