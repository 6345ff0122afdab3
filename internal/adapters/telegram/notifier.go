package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"bbsit-bot/internal/domain"
	"bbsit-bot/internal/infra/metrics"
)

// NewBot создаёт клиента Bot API. Пустой endpoint означает api.telegram.org.
func NewBot(token, endpoint string, timeout time.Duration) (*tgbotapi.BotAPI, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	return bot, nil
}

// Notifier отправляет уведомления в один заранее заданный чат.
type Notifier struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	limiter *rate.Limiter
}

var _ domain.Notifier = (*Notifier)(nil)

// NewNotifier создаёт отправителя. interval задаёт минимальный промежуток между сообщениями.
func NewNotifier(bot *tgbotapi.BotAPI, chatID int64, interval time.Duration) *Notifier {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Notifier{bot: bot, chatID: chatID, limiter: rate.NewLimiter(limit, 1)}
}

// Send отправляет сообщение с разметкой Markdown.
func (n *Notifier) Send(ctx context.Context, msg domain.Notification) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	cfg := tgbotapi.NewMessage(n.chatID, msg.Text)
	cfg.ParseMode = tgbotapi.ModeMarkdown
	cfg.DisableWebPagePreview = true

	start := time.Now()
	_, err := n.bot.Send(cfg)
	metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(n.chatID, 10), start, err)
	if err != nil {
		metrics.BotSendErrors.Inc()
		return fmt.Errorf("%w: объявление %s: %v", domain.ErrDelivery, msg.ItemID, err)
	}
	return nil
}
