package store

import (
	"context"
	"fmt"

	"bbsit-bot/internal/domain"
	"bbsit-bot/internal/infra/cache"
	"bbsit-bot/internal/infra/config"
	"bbsit-bot/internal/infra/db"
)

// Backend объединяет множество просмотренных объявлений и реакции.
type Backend interface {
	domain.SeenStore
	domain.ReactionRepo
}

// Open подключает хранилище, выбранное в STORE_BACKEND. Закрывать результат обязан вызывающий.
func Open(ctx context.Context, cfg config.AppConfig) (Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		conn, err := db.OpenSQLite(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
		}
		s, err := NewSQLite(ctx, conn)
		if err != nil {
			conn.Close()
			return nil, err
		}
		return s, nil
	case config.BackendPostgres:
		pool, err := db.Connect(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("%w: postgres: %v", domain.ErrStore, err)
		}
		s := NewPostgres(pool)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return s, nil
	case config.BackendRedis:
		client, err := cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
		}
		return NewRedis(client, cfg.RedisKey), nil
	case config.BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: неизвестное хранилище %q", domain.ErrStore, cfg.Store.Backend)
	}
}
