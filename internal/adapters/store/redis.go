package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"bbsit-bot/internal/domain"
)

// Redis хранит просмотренные объявления в одном хеше.
type Redis struct {
	client *redis.Client
	key    string
}

var (
	_ domain.SeenStore    = (*Redis)(nil)
	_ domain.ReactionRepo = (*Redis)(nil)
)

// NewRedis создаёт хранилище по ключу хеша.
func NewRedis(client *redis.Client, key string) *Redis {
	return &Redis{client: client, key: key}
}

// Contains проверяет, отправлялось ли объявление.
func (r *Redis) Contains(ctx context.Context, id string) (bool, error) {
	ok, err := r.client.HExists(ctx, r.key, id).Result()
	if err != nil {
		return false, fmt.Errorf("%w: поиск %s: %v", domain.ErrStore, id, err)
	}
	return ok, nil
}

// Record сохраняет объявление.
func (r *Redis) Record(ctx context.Context, item domain.RawItem) error {
	if err := r.client.HSet(ctx, r.key, item.ID, snapshot(item)).Err(); err != nil {
		return fmt.Errorf("%w: запись %s: %v", domain.ErrStore, item.ID, err)
	}
	return nil
}

// SaveReaction добавляет реакцию в список и увеличивает счётчик.
func (r *Redis) SaveReaction(ctx context.Context, reaction domain.Reaction) error {
	payload, err := json.Marshal(map[string]any{
		"item_id": reaction.ItemID,
		"kind":    reaction.Kind,
		"chat_id": reaction.ChatID,
		"at":      reactionTime(reaction),
	})
	if err != nil {
		return fmt.Errorf("marshal reaction: %w", err)
	}
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, r.key+":reactions", payload)
	pipe.HIncrBy(ctx, r.key+":reaction_counts", string(reaction.Kind), 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: реакция %s: %v", domain.ErrStore, reaction.ItemID, err)
	}
	return nil
}

// CountReactions возвращает счётчик реакций указанного типа.
func (r *Redis) CountReactions(ctx context.Context, kind domain.ReactionKind) (int, error) {
	n, err := r.client.HGet(ctx, r.key+":reaction_counts", string(kind)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: подсчёт реакций: %v", domain.ErrStore, err)
	}
	return n, nil
}

// Close закрывает клиента.
func (r *Redis) Close() error {
	return r.client.Close()
}
