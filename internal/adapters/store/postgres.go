package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bbsit-bot/internal/domain"
)

// Postgres реализует хранилище на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.SeenStore    = (*Postgres)(nil)
	_ domain.ReactionRepo = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// EnsureSchema создаёт таблицы, если их ещё нет.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	const schema = `
	CREATE TABLE IF NOT EXISTS seen_items (
		id          TEXT PRIMARY KEY,
		payload     JSONB NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS reactions (
		id         BIGSERIAL PRIMARY KEY,
		item_id    TEXT NOT NULL,
		kind       TEXT NOT NULL,
		chat_id    BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_reactions_kind ON reactions(kind);
	`
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%w: схема postgres: %v", domain.ErrStore, err)
	}
	return nil
}

// Contains проверяет, отправлялось ли объявление.
func (p *Postgres) Contains(ctx context.Context, id string) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var one int
	err := p.pool.QueryRow(ctx, `SELECT 1 FROM seen_items WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: поиск %s: %v", domain.ErrStore, id, err)
	}
	return true, nil
}

// Record сохраняет объявление.
func (p *Postgres) Record(ctx context.Context, item domain.RawItem) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	_, err := p.pool.Exec(ctx, `
		INSERT INTO seen_items (id, payload, recorded_at) VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, recorded_at = EXCLUDED.recorded_at`,
		item.ID, snapshot(item))
	if err != nil {
		return fmt.Errorf("%w: запись %s: %v", domain.ErrStore, item.ID, err)
	}
	return nil
}

// SaveReaction сохраняет реакцию пользователя.
func (p *Postgres) SaveReaction(ctx context.Context, r domain.Reaction) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	_, err := p.pool.Exec(ctx,
		`INSERT INTO reactions (item_id, kind, chat_id, created_at) VALUES ($1, $2, $3, $4)`,
		r.ItemID, string(r.Kind), r.ChatID, reactionTime(r))
	if err != nil {
		return fmt.Errorf("%w: реакция %s: %v", domain.ErrStore, r.ItemID, err)
	}
	return nil
}

// CountReactions считает реакции указанного типа.
func (p *Postgres) CountReactions(ctx context.Context, kind domain.ReactionKind) (int, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var n int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reactions WHERE kind = $1`, string(kind)).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: подсчёт реакций: %v", domain.ErrStore, err)
	}
	return n, nil
}

// Close закрывает пул.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
