package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"fun-bot/internal/bootstrap"
	"fun-bot/internal/channels/telegram"
	"fun-bot/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to build runtime", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			slog.Warn("failed to close runtime", "err", err)
		}
	}()

	bot, api, err := telegram.New(cfg.TelegramBotToken, rt.Turns, logger)
	if err != nil {
		slog.Error("failed to start telegram bot", "err", err)
		os.Exit(1)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	slog.Info("telegram bot started", "username", api.Self.UserName, "state_backend", cfg.StateBackend)
	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()
	bot.Run(ctx, updates)
}
