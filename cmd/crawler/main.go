package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"bbsit-bot/internal/adapters/bbst"
	"bbsit-bot/internal/adapters/store"
	"bbsit-bot/internal/adapters/telegram"
	"bbsit-bot/internal/domain"
	"bbsit-bot/internal/infra/cache"
	"bbsit-bot/internal/infra/config"
	applog "bbsit-bot/internal/infra/log"
	"bbsit-bot/internal/infra/metrics"
	"bbsit-bot/internal/infra/queue"
	"bbsit-bot/internal/usecase/crawl"
)

const (
	exitDone   = 0
	exitFailed = 1
	exitSetup  = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := applog.NewLogger("prod")
		bootLogger.Error().Err(err).Msg("crawler: некорректная конфигурация")
		return exitSetup
	}
	logger := applog.NewLogger(cfg.AppEnv)
	if err := cfg.ValidateCrawler(); err != nil {
		logger.Error().Err(err).Msg("crawler: некорректная конфигурация")
		return exitSetup
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Error().Err(err).Msg("crawler: некорректная конфигурация")
		return exitSetup
	}

	registry := prometheus.NewRegistry()
	metrics.MustRegister(registry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seen, err := store.Open(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Str("backend", cfg.Store.Backend).Msg("crawler: не удалось открыть хранилище")
		return exitSetup
	}
	defer func() {
		if err := seen.Close(); err != nil {
			logger.Error().Err(err).Msg("crawler: не удалось закрыть хранилище")
		}
	}()

	bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.APIEndpoint, cfg.Feed.Timeout)
	if err != nil {
		logger.Error().Err(err).Msg("crawler: не удалось создать бота")
		return exitSetup
	}
	notifier := telegram.NewNotifier(bot, cfg.Telegram.ChatID, cfg.Telegram.SendInterval)

	publisher, closePublisher, err := openPublisher(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("crawler: не удалось подключить публикацию объявлений")
		return exitSetup
	}
	defer func() {
		if err := closePublisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("crawler: не удалось закрыть публикацию объявлений")
		}
	}()

	feed := bbst.NewClient(bbst.Options{
		BaseURL:    cfg.Feed.BaseURL,
		Session:    cfg.Feed.Session,
		DeviceID:   cfg.Feed.DeviceID,
		Categories: cfg.Feed.Categories,
		Limit:      cfg.Feed.PageLimit,
		MinScore:   cfg.Feed.MinScore,
		Sorting:    cfg.Feed.Sorting,
		Timeout:    cfg.Feed.Timeout,
		Location:   loc,
	}, logger)

	svc := crawl.NewService(feed, seen, notifier, publisher, logger, crawl.Options{
		Lookahead: cfg.Crawl.Lookahead,
		Pacer:     crawl.RandomPacer(cfg.Crawl.PauseMin, cfg.Crawl.PauseMax),
		Now:       func() time.Time { return time.Now().In(loc) },
	})

	start := time.Now()
	report, runErr := svc.Run(ctx)
	metrics.ObserveRun(time.Since(start), runErr == nil)
	pushMetrics(cfg.PushgatewayURL, registry, logger)

	if runErr != nil {
		logger.Error().Err(runErr).Str("run_id", report.RunID).Msg("crawler: обход завершился с ошибкой")
		return exitFailed
	}
	return exitDone
}

// openPublisher выбирает RabbitMQ, очередь в Redis или отключает публикацию.
func openPublisher(ctx context.Context, cfg config.AppConfig) (domain.ItemPublisher, io.Closer, error) {
	switch {
	case cfg.RabbitURL != "":
		p, err := queue.NewRabbitPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	case cfg.RedisQueueKey != "":
		client, err := cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return queue.NewRedisItemQueue(client, cfg.RedisQueueKey), client, nil
	default:
		return nil, nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func pushMetrics(url string, gatherer prometheus.Gatherer, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metrics.Push(ctx, url, "bbsit_crawler", gatherer); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn().Err(err).Msg("crawler: не удалось отправить метрики")
	}
}
