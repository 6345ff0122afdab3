package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"bbsit-bot/internal/domain"
	"bbsit-bot/internal/infra/metrics"
	"bbsit-bot/internal/usecase/reactions"
)

const helpText = "Je publie les nouvelles annonces de garde dès qu'elles apparaissent.\n\n" +
	"/like<id> : l'annonce vous intéresse\n" +
	"/dislike<id> : l'annonce ne convient pas\n" +
	"/stats : bilan des réactions\n" +
	"/help : cette aide"

// Handler обслуживает вебхук бота.
type Handler struct {
	bot       *tgbotapi.BotAPI
	log       zerolog.Logger
	reactions *reactions.Service
}

// NewHandler создаёт обработчик.
func NewHandler(bot *tgbotapi.BotAPI, log zerolog.Logger, reactionsUC *reactions.Service) *Handler {
	return &Handler{
		bot:       bot,
		log:       log.With().Str("component", "bot").Logger(),
		reactions: reactionsUC,
	}
}

// HandleUpdate обрабатывает входящий апдейт.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil {
		msg = upd.ChannelPost
	}
	if msg == nil || msg.Chat == nil {
		return
	}
	h.handleMessage(ctx, msg)
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	chatID := msg.Chat.ID
	switch {
	case strings.HasPrefix(text, "/start"), strings.HasPrefix(text, "/help"):
		h.reply(chatID, helpText)
	case strings.HasPrefix(text, "/stats"):
		h.handleStats(ctx, chatID)
	case strings.HasPrefix(text, "/like"), strings.HasPrefix(text, "/dislike"):
		h.handleReaction(ctx, chatID, text)
	case strings.HasPrefix(text, "/"):
		h.reply(chatID, "Commande inconnue. Tapez /help")
	}
}

func (h *Handler) handleReaction(ctx context.Context, chatID int64, text string) {
	r, err := h.reactions.Handle(ctx, chatID, text)
	switch {
	case err == nil:
	case errors.Is(err, reactions.ErrEmptyID), errors.Is(err, reactions.ErrNotReaction):
		h.reply(chatID, "Indiquez l'annonce, par exemple /like123")
		return
	default:
		h.log.Error().Err(err).Int64("chat", chatID).Msg("bot: не удалось сохранить реакцию")
		h.reply(chatID, "Impossible d'enregistrer la réaction, réessayez plus tard")
		return
	}
	h.log.Info().Str("item", r.ItemID).Str("kind", string(r.Kind)).Int64("chat", chatID).Msg("bot: реакция сохранена")
	if r.Kind == domain.ReactionLike {
		h.reply(chatID, fmt.Sprintf("👍🏻 Noté, l'annonce %s vous intéresse", r.ItemID))
		return
	}
	h.reply(chatID, fmt.Sprintf("👎🏻 Noté, l'annonce %s est écartée", r.ItemID))
}

func (h *Handler) handleStats(ctx context.Context, chatID int64) {
	st, err := h.reactions.Stats(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("bot: не удалось посчитать реакции")
		h.reply(chatID, "Statistiques indisponibles pour le moment")
		return
	}
	h.reply(chatID, fmt.Sprintf("👍🏻 %d    👎🏻 %d", st.Likes, st.Dislikes))
}

func (h *Handler) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	start := time.Now()
	_, err := h.bot.Send(msg)
	metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(chatID, 10), start, err)
	if err != nil {
		metrics.BotSendErrors.Inc()
		h.log.Error().Err(err).Msg("bot: не удалось отправить сообщение")
	}
}

// ServeHTTP принимает апдейт вебхука Telegram.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.HandleUpdate(r.Context(), update)
	w.WriteHeader(http.StatusOK)
}
