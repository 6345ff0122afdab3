package reactions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bbsit-bot/internal/domain"
	"bbsit-bot/internal/infra/metrics"
)

// ErrNotReaction возвращается, если текст не является командой реакции.
var ErrNotReaction = errors.New("не команда реакции")

// ErrEmptyID возвращается для команды без идентификатора объявления.
var ErrEmptyID = errors.New("не указан идентификатор объявления")

var commands = []struct {
	prefix string
	kind   domain.ReactionKind
}{
	{"/dislike", domain.ReactionDislike},
	{"/like", domain.ReactionLike},
}

// Stats итоги реакций.
type Stats struct {
	Likes    int
	Dislikes int
}

// Service сохраняет реакции на уведомления.
type Service struct {
	repo domain.ReactionRepo
	now  func() time.Time
}

// NewService создаёт сервис реакций.
func NewService(repo domain.ReactionRepo) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ParseCommand разбирает /like<id> и /dislike<id>, в том числе с суффиксом @botname.
func ParseCommand(text string) (domain.ReactionKind, string, error) {
	text = strings.TrimSpace(text)
	if fields := strings.Fields(text); len(fields) > 0 {
		text = fields[0]
	}
	if at := strings.IndexByte(text, '@'); at >= 0 {
		text = text[:at]
	}
	for _, c := range commands {
		if !strings.HasPrefix(text, c.prefix) {
			continue
		}
		id := strings.TrimPrefix(text, c.prefix)
		if id == "" {
			return "", "", ErrEmptyID
		}
		for _, r := range id {
			if !isIDRune(r) {
				return "", "", fmt.Errorf("%w: %q", ErrNotReaction, text)
			}
		}
		return c.kind, id, nil
	}
	return "", "", ErrNotReaction
}

func isIDRune(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '-'
}

// Handle разбирает команду и сохраняет реакцию.
func (s *Service) Handle(ctx context.Context, chatID int64, text string) (domain.Reaction, error) {
	kind, id, err := ParseCommand(text)
	if err != nil {
		return domain.Reaction{}, err
	}
	r := domain.Reaction{ItemID: id, Kind: kind, ChatID: chatID, At: s.now()}
	if err := s.repo.SaveReaction(ctx, r); err != nil {
		return domain.Reaction{}, err
	}
	metrics.ReactionsTotal.WithLabelValues(string(kind)).Inc()
	return r, nil
}

// Stats возвращает количество реакций каждого типа.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	likes, err := s.repo.CountReactions(ctx, domain.ReactionLike)
	if err != nil {
		return Stats{}, err
	}
	dislikes, err := s.repo.CountReactions(ctx, domain.ReactionDislike)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Likes: likes, Dislikes: dislikes}, nil
}
