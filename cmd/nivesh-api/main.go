package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nivesh/internal/ai"
	"nivesh/internal/api"
	"nivesh/internal/config"
	"nivesh/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var gameStore store.Store
	if cfg.DatabaseURL != "" {
		gameStore, err = store.NewPostgres(ctx, cfg.DatabaseURL)
	} else {
		gameStore, err = store.NewSQLite(ctx, cfg.SQLitePath)
	}
	if err != nil {
		logger.Error("store init failed", "err", err)
		os.Exit(1)
	}
	defer gameStore.Close()

	reviewer := ai.NewReviewer(cfg.AIBaseURL, cfg.AIAPIKey)
	server := api.New(cfg, logger, gameStore, reviewer)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("nivesh api listening", "addr", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
