package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bbsit-bot/internal/domain"
	"bbsit-bot/internal/infra/metrics"
)

// RedisItemQueue складывает события о новых объявлениях в Redis list.
type RedisItemQueue struct {
	client *redis.Client
	key    string
}

var _ domain.ItemPublisher = (*RedisItemQueue)(nil)

// NewRedisItemQueue создаёт очередь по указанному ключу.
func NewRedisItemQueue(client *redis.Client, key string) *RedisItemQueue {
	return &RedisItemQueue{client: client, key: key}
}

// Publish кладёт событие в начало списка.
func (q *RedisItemQueue) Publish(ctx context.Context, item domain.RawItem) error {
	payload, err := json.Marshal(domain.NewItemEvent(item, time.Now()))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	start := time.Now()
	err = q.client.LPush(ctx, q.key, payload).Err()
	metrics.ObserveNetworkRequest("redis", "lpush", q.key, start, err)
	if err != nil {
		return fmt.Errorf("push event: %w", err)
	}
	return nil
}

// Pop блокирующе читает событие из очереди. Это API для внешних потребителей
// событий: сам краулер только публикует.
func (q *RedisItemQueue) Pop(ctx context.Context) (domain.ItemEvent, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.ItemEvent{}, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.ItemEvent{}, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.ItemEvent{}, err
		}
		if len(res) != 2 {
			return domain.ItemEvent{}, errors.New("redis queue: unexpected response")
		}
		var ev domain.ItemEvent
		if err := json.Unmarshal([]byte(res[1]), &ev); err != nil {
			return domain.ItemEvent{}, fmt.Errorf("decode event: %w", err)
		}
		return ev, nil
	}
}
