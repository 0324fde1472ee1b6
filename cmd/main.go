package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"fun-bot/handler"
	"fun-bot/internal/bootstrap"
	"fun-bot/internal/config"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	// ---- Services ----
	rt, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to build runtime", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	opts := []handler.Option{handler.WithLogger(logger)}
	if rt.Secret != nil {
		opts = append(opts, handler.WithSecret(rt.Secret))
	}
	h, err := handler.NewHandler(rt.Turns, opts...)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
