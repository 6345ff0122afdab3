package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bbsit-bot/internal/domain"
	"bbsit-bot/internal/infra/cache"
	"bbsit-bot/internal/infra/config"
	"bbsit-bot/internal/infra/db"
)

func testItem(id string) domain.RawItem {
	return domain.RawItem{ID: id, Raw: json.RawMessage(`{"id":` + id + `,"price":1250}`)}
}

// exerciseBackend проверяет общий контракт всех хранилищ.
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	ok, err := b.Contains(ctx, "101")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if ok {
		t.Fatal("пустое хранилище не должно содержать объявление")
	}
	if err := b.Record(ctx, testItem("101")); err != nil {
		t.Fatalf("не ожидали ошибку записи: %v", err)
	}
	if err := b.Record(ctx, testItem("101")); err != nil {
		t.Fatalf("повторная запись должна быть идемпотентной: %v", err)
	}
	ok, err = b.Contains(ctx, "101")
	if err != nil || !ok {
		t.Fatalf("ожидали найденное объявление, ok=%v err=%v", ok, err)
	}

	reaction := domain.Reaction{ItemID: "101", Kind: domain.ReactionLike, ChatID: 7, At: time.Now()}
	if err := b.SaveReaction(ctx, reaction); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	likes, err := b.CountReactions(ctx, domain.ReactionLike)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if likes < 1 {
		t.Fatalf("ожидали хотя бы одну реакцию like, получили %d", likes)
	}
}

func TestMemoryBackend(t *testing.T) {
	m := NewMemory()
	exerciseBackend(t, m)
	if m.Len() != 1 {
		t.Fatalf("ожидали 1 объявление, получили %d", m.Len())
	}
}

func TestSQLiteBackendSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bbsittings.db")
	ctx := context.Background()

	conn, err := db.OpenSQLite(path)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	s, err := NewSQLite(ctx, conn)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	exerciseBackend(t, s)
	if err := s.Close(); err != nil {
		t.Fatalf("не ожидали ошибку закрытия: %v", err)
	}

	cfg := config.AppConfig{}
	cfg.Store.Backend = config.BackendSQLite
	cfg.Store.Path = path
	reopened, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	defer reopened.Close()
	ok, err := reopened.Contains(ctx, "101")
	if err != nil || !ok {
		t.Fatalf("запись должна пережить перезапуск, ok=%v err=%v", ok, err)
	}
}

func TestSQLiteClosedReturnsStoreError(t *testing.T) {
	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "closed.db"))
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	s, err := NewSQLite(context.Background(), conn)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	s.Close()
	if err := s.Record(context.Background(), testItem("5")); !errors.Is(err, domain.ErrStore) {
		t.Fatalf("ожидали ErrStore, получили %v", err)
	}
	if _, err := s.Contains(context.Background(), "5"); !errors.Is(err, domain.ErrStore) {
		t.Fatalf("ожидали ErrStore, получили %v", err)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	cfg := config.AppConfig{}
	cfg.Store.Backend = "etcd"
	if _, err := Open(context.Background(), cfg); !errors.Is(err, domain.ErrStore) {
		t.Fatalf("ожидали ErrStore, получили %v", err)
	}
}

func TestPostgresBackend(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN не задан")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	p := NewPostgres(pool)
	defer p.Close()
	if err := p.EnsureSchema(ctx); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := pool.Exec(ctx, `DELETE FROM seen_items WHERE id = '101'`); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	exerciseBackend(t, p)
}

func TestRedisBackend(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR не задан")
	}
	ctx := context.Background()
	client, err := cache.Connect(ctx, addr)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	key := "bbsit:test:" + time.Now().Format("150405.000000")
	r := NewRedis(client, key)
	defer func() {
		client.Del(ctx, key, key+":reactions", key+":reaction_counts")
		r.Close()
	}()
	exerciseBackend(t, r)
}
