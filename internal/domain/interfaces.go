package domain

import (
	"context"
	"time"
)

// SeenStore хранит идентификаторы уже отправленных объявлений.
type SeenStore interface {
	Contains(ctx context.Context, id string) (bool, error)
	// Record сохраняет снимок объявления. После возврата без ошибки запись должна пережить рестарт процесса.
	Record(ctx context.Context, item RawItem) error
	Close() error
}

// FeedClient получает одну страницу ленты.
type FeedClient interface {
	// FetchPage запрашивает страницу начиная с cursor. nil означает начало текущего дня.
	FetchPage(ctx context.Context, cursor *time.Time) (Page, error)
}

// Notifier доставляет сообщение в настроенный чат.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// ReactionRepo сохраняет реакции пользователя на объявления.
type ReactionRepo interface {
	SaveReaction(ctx context.Context, r Reaction) error
	CountReactions(ctx context.Context, kind ReactionKind) (int, error)
}

// ItemPublisher публикует снимки новых объявлений для внешних потребителей.
type ItemPublisher interface {
	Publish(ctx context.Context, item RawItem) error
}
