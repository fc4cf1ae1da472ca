package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/vendo/internal/app/clicks"
	"github.com/magabrotheeeer/vendo/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting click-consumer", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := clicks.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize click-consumer", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("click-consumer stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("click-consumer stopped gracefully")
}
