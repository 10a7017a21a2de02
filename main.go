package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	executer "github.com/sudankdk/runbox/internal/Executer"
	"github.com/sudankdk/runbox/internal/api"
	"github.com/sudankdk/runbox/internal/config"
	"github.com/sudankdk/runbox/internal/languages"
	"github.com/sudankdk/runbox/internal/limiter"
	"github.com/sudankdk/runbox/internal/logging"
)

func main() {
	if err := config.InitEnv(); err != nil {
		log.Fatalf("failed to load .env: %v", err)
	}
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.NewZapLogger(cfg.Debug)
	defer logger.Sync()

	langs, err := languages.New(cfg.Compilers)
	if err != nil {
		logger.Error("invalid compiler definitions", "error", err)
		os.Exit(1)
	}
	exec, err := executer.NewExecutor(cfg, langs, logger)
	if err != nil {
		logger.Error("failed to set up executor", "error", err)
		os.Exit(1)
	}
	server := api.NewServer(exec, limiter.NewRateLimiter(cfg.RateLimit, cfg.RateBurst), logger)

	go func() {
		if err := server.StartServer(cfg.Bind); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	logger.Info("server exited")
}
