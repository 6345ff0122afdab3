package store

import (
	"context"
	"sync"

	"bbsit-bot/internal/domain"
)

// Memory держит просмотренные объявления в памяти процесса. Подходит для тестов и пробных запусков.
type Memory struct {
	mu        sync.RWMutex
	items     map[string]domain.RawItem
	reactions []domain.Reaction
}

var (
	_ domain.SeenStore    = (*Memory)(nil)
	_ domain.ReactionRepo = (*Memory)(nil)
)

// NewMemory создаёт пустое хранилище.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]domain.RawItem)}
}

// Contains проверяет, отправлялось ли объявление.
func (m *Memory) Contains(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.items[id]
	return ok, nil
}

// Record сохраняет объявление.
func (m *Memory) Record(_ context.Context, item domain.RawItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
	return nil
}

// SaveReaction сохраняет реакцию.
func (m *Memory) SaveReaction(_ context.Context, r domain.Reaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reactions = append(m.reactions, r)
	return nil
}

// CountReactions считает реакции указанного типа.
func (m *Memory) CountReactions(_ context.Context, kind domain.ReactionKind) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.reactions {
		if r.Kind == kind {
			n++
		}
	}
	return n, nil
}

// Len возвращает число сохранённых объявлений.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Close ничего не делает.
func (m *Memory) Close() error { return nil }
