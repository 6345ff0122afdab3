package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"bbsit-bot/internal/adapters/bot"
	"bbsit-bot/internal/adapters/store"
	"bbsit-bot/internal/adapters/telegram"
	"bbsit-bot/internal/infra/config"
	apphttp "bbsit-bot/internal/infra/http"
	"bbsit-bot/internal/infra/log"
	"bbsit-bot/internal/infra/metrics"
	"bbsit-bot/internal/usecase/reactions"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := log.NewLogger("prod")
		bootLogger.Error().Err(err).Msg("bot-gateway: некорректная конфигурация")
		os.Exit(2)
	}
	logger := log.NewLogger(cfg.AppEnv)
	if err := cfg.ValidateGateway(); err != nil {
		logger.Error().Err(err).Msg("bot-gateway: некорректная конфигурация")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	backend, err := store.Open(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("bot-gateway: не удалось открыть хранилище")
		os.Exit(2)
	}
	defer backend.Close()

	botAPI, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.APIEndpoint, 30*time.Second)
	if err != nil {
		logger.Error().Err(err).Msg("bot-gateway: не удалось создать бота")
		os.Exit(2)
	}

	registry := prometheus.NewRegistry()
	metrics.MustRegister(registry)

	h := bot.NewHandler(botAPI, logger, reactions.NewService(backend))
	srv := apphttp.NewServer(logger, registry)
	srv.Router.With(apphttp.RequireSecretToken(cfg.Telegram.WebhookSecret)).Post("/bot/webhook", h.ServeHTTP)

	go func() {
		logger.Info().Msg("бот-гейтвей запущен")
		if err := srv.Start(":" + strconv.Itoa(cfg.Port)); err != nil {
			logger.Error().Err(err).Msg("HTTP сервер остановлен")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("остановка бота")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
