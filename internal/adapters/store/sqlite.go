package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bbsit-bot/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS seen_items (
	id          TEXT PRIMARY KEY,
	payload     TEXT NOT NULL,
	recorded_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS reactions (
	item_id    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	chat_id    INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reactions_kind ON reactions(kind);
`

// SQLite хранит просмотренные объявления в одном файле.
type SQLite struct {
	db *sql.DB
}

var (
	_ domain.SeenStore    = (*SQLite)(nil)
	_ domain.ReactionRepo = (*SQLite)(nil)
)

// NewSQLite создаёт таблицы и возвращает хранилище.
func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("%w: схема sqlite: %v", domain.ErrStore, err)
	}
	return &SQLite{db: db}, nil
}

// Contains проверяет, отправлялось ли объявление.
func (s *SQLite) Contains(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM seen_items WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: поиск %s: %v", domain.ErrStore, id, err)
	}
	return true, nil
}

// Record сохраняет объявление. Каждый INSERT фиксируется отдельной транзакцией.
func (s *SQLite) Record(ctx context.Context, item domain.RawItem) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO seen_items (id, payload, recorded_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, recorded_at = excluded.recorded_at`,
		item.ID, snapshot(item), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: запись %s: %v", domain.ErrStore, item.ID, err)
	}
	return nil
}

// SaveReaction сохраняет реакцию пользователя.
func (s *SQLite) SaveReaction(ctx context.Context, r domain.Reaction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reactions (item_id, kind, chat_id, created_at) VALUES (?, ?, ?, ?)`,
		r.ItemID, string(r.Kind), r.ChatID, reactionTime(r))
	if err != nil {
		return fmt.Errorf("%w: реакция %s: %v", domain.ErrStore, r.ItemID, err)
	}
	return nil
}

// CountReactions считает реакции указанного типа.
func (s *SQLite) CountReactions(ctx context.Context, kind domain.ReactionKind) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reactions WHERE kind = ?`, string(kind)).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: подсчёт реакций: %v", domain.ErrStore, err)
	}
	return n, nil
}

// Close закрывает файл.
func (s *SQLite) Close() error {
	return s.db.Close()
}
