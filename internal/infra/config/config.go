package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"Europe/Paris"`
	Port   int    `envconfig:"PORT" default:"8080"`

	Telegram struct {
		Token         string        `envconfig:"TG_BOT_TOKEN"`
		ChatID        int64         `envconfig:"TG_CHAT_ID"`
		APIEndpoint   string        `envconfig:"TG_API_ENDPOINT"`
		SendInterval  time.Duration `envconfig:"TG_SEND_INTERVAL" default:"1s"`
		WebhookSecret string        `envconfig:"TG_WEBHOOK_SECRET"`
	} `envconfig:""`

	Feed struct {
		Session    string        `envconfig:"BB_SESSION"`
		BaseURL    string        `envconfig:"BB_BASE_URL" default:"https://api.bbst.eu"`
		Categories []string      `envconfig:"BB_CATEGORIES" default:"one_time,recurrent,long_time,tutoring"`
		PageLimit  int           `envconfig:"BB_PAGE_LIMIT" default:"7"`
		MinScore   int           `envconfig:"BB_MIN_SCORE" default:"5"`
		Sorting    string        `envconfig:"BB_SORTING" default:"local"`
		DeviceID   string        `envconfig:"BB_DEVICE_ID" default:"1200609"`
		Timeout    time.Duration `envconfig:"BB_TIMEOUT" default:"30s"`
	} `envconfig:""`

	Crawl struct {
		Lookahead time.Duration `envconfig:"CRAWL_LOOKAHEAD" default:"168h"`
		PauseMin  time.Duration `envconfig:"CRAWL_PAUSE_MIN" default:"1s"`
		PauseMax  time.Duration `envconfig:"CRAWL_PAUSE_MAX" default:"10s"`
	} `envconfig:""`

	Store struct {
		Backend string `envconfig:"STORE_BACKEND" default:"sqlite"`
		Path    string `envconfig:"STORE_PATH" default:"bbsittings.db"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`
	RedisKey  string `envconfig:"REDIS_KEY" default:"bbsit:seen"`
	// RedisQueueKey включает очередь событий в Redis, если RabbitMQ не настроен.
	RedisQueueKey string `envconfig:"REDIS_QUEUE_KEY"`

	RabbitURL      string `envconfig:"RABBITMQ_URL"`
	RabbitExchange string `envconfig:"RABBITMQ_EXCHANGE" default:"bbsittings"`

	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL"`
}

// Поддерживаемые хранилища просмотренных объявлений.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Load загружает конфиг из окружения.
func Load() (AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("не удалось загрузить конфиг: %w", err)
	}
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	return cfg, nil
}

// Location возвращает часовой пояс ленты.
func (c AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return nil, fmt.Errorf("часовой пояс %q: %w", c.TZ, err)
	}
	return loc, nil
}

// ValidateCrawler проверяет настройки, без которых обход не запустить.
func (c AppConfig) ValidateCrawler() error {
	var errs []error
	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("не указан токен Telegram (TG_BOT_TOKEN)"))
	}
	if c.Telegram.ChatID == 0 {
		errs = append(errs, errors.New("не указан чат Telegram (TG_CHAT_ID)"))
	}
	if c.Feed.Session == "" {
		errs = append(errs, errors.New("не указана сессия ленты (BB_SESSION)"))
	}
	if c.Feed.PageLimit <= 0 {
		errs = append(errs, errors.New("BB_PAGE_LIMIT должен быть положительным"))
	}
	if c.Crawl.Lookahead <= 0 {
		errs = append(errs, errors.New("CRAWL_LOOKAHEAD должен быть положительным"))
	}
	if c.Crawl.PauseMin < 0 || c.Crawl.PauseMax < c.Crawl.PauseMin {
		errs = append(errs, errors.New("некорректный интервал паузы (CRAWL_PAUSE_MIN/CRAWL_PAUSE_MAX)"))
	}
	if c.RedisQueueKey != "" && c.RabbitURL == "" && c.RedisAddr == "" {
		errs = append(errs, errors.New("для REDIS_QUEUE_KEY нужен REDIS_ADDR"))
	}
	errs = append(errs, c.validateStore())
	return errors.Join(errs...)
}

// ValidateGateway проверяет настройки вебхука.
func (c AppConfig) ValidateGateway() error {
	var errs []error
	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("не указан токен Telegram (TG_BOT_TOKEN)"))
	}
	if c.Port <= 0 {
		errs = append(errs, errors.New("PORT должен быть положительным"))
	}
	errs = append(errs, c.validateStore())
	return errors.Join(errs...)
}

func (c AppConfig) validateStore() error {
	switch c.Store.Backend {
	case BackendSQLite:
		if c.Store.Path == "" {
			return errors.New("не указан путь к файлу хранилища (STORE_PATH)")
		}
	case BackendPostgres:
		if c.PGDSN == "" {
			return errors.New("не указан адрес Postgres (PG_DSN)")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("не указан адрес Redis (REDIS_ADDR)")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("неизвестное хранилище %q (STORE_BACKEND)", c.Store.Backend)
	}
	return nil
}
