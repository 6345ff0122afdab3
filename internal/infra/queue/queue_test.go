package queue

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"bbsit-bot/internal/domain"
	"bbsit-bot/internal/infra/cache"
)

func TestRedisItemQueueRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR не задан")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := cache.Connect(ctx, addr)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	defer client.Close()

	key := "bbsit:test:events:" + time.Now().Format("150405.000000")
	defer client.Del(context.Background(), key)
	q := NewRedisItemQueue(client, key)

	if err := q.Publish(ctx, domain.RawItem{ID: "77", Raw: json.RawMessage(`{"id":77}`)}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	ev, err := q.Pop(ctx)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if ev.ItemID != "77" {
		t.Fatalf("ожидали событие 77, получили %+v", ev)
	}
}

func TestRabbitPublisher(t *testing.T) {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		t.Skip("RABBITMQ_URL не задан")
	}
	p, err := NewRabbitPublisher(url, "bbsittings_test")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	defer p.Close()
	if err := p.Publish(context.Background(), domain.RawItem{ID: "1"}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
}

func TestNewRabbitPublisherValidatesInput(t *testing.T) {
	if _, err := NewRabbitPublisher("", "x"); err == nil {
		t.Fatal("ожидали ошибку для пустого URL")
	}
	if _, err := NewRabbitPublisher("amqp://localhost", ""); err == nil {
		t.Fatal("ожидали ошибку для пустого exchange")
	}
}
