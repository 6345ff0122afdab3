package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"bbsit-bot/internal/adapters/store"
	"bbsit-bot/internal/domain"
	"bbsit-bot/internal/usecase/reactions"
)

type fakeTelegram struct {
	mu   sync.Mutex
	sent []url.Values
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"bbsit","username":"bbsit_bot"}}`))
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.sent = append(f.sent, r.PostForm)
		f.mu.Unlock()
		w.Write([]byte(`{"ok":true,"result":{"message_id":10,"date":0,"chat":{"id":7,"type":"private"}}}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
	}
}

func (f *fakeTelegram) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, v := range f.sent {
		out = append(out, v.Get("text"))
	}
	return out
}

func newHandler(t *testing.T) (*Handler, *fakeTelegram, *store.Memory) {
	t.Helper()
	fake := &fakeTelegram{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	api, err := tgbotapi.NewBotAPIWithClient("token", srv.URL+"/bot%s/%s", srv.Client())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	mem := store.NewMemory()
	return NewHandler(api, zerolog.Nop(), reactions.NewService(mem)), fake, mem
}

func message(text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{Text: text, Chat: &tgbotapi.Chat{ID: 7}}}
}

func TestHandleLikeStoresReaction(t *testing.T) {
	h, fake, mem := newHandler(t)
	ctx := context.Background()

	h.HandleUpdate(ctx, message("/like123"))
	h.HandleUpdate(ctx, message("/dislike456@bbsit_bot"))

	likes, _ := mem.CountReactions(ctx, domain.ReactionLike)
	dislikes, _ := mem.CountReactions(ctx, domain.ReactionDislike)
	if likes != 1 || dislikes != 1 {
		t.Fatalf("ожидали 1/1, получили %d/%d", likes, dislikes)
	}
	texts := fake.texts()
	if len(texts) != 2 || !strings.Contains(texts[0], "123") || !strings.Contains(texts[1], "456") {
		t.Fatalf("неожиданные ответы: %q", texts)
	}
}

func TestHandleStatsAndHelp(t *testing.T) {
	h, fake, _ := newHandler(t)
	ctx := context.Background()

	h.HandleUpdate(ctx, message("/like1"))
	h.HandleUpdate(ctx, message("/stats"))
	h.HandleUpdate(ctx, message("/start"))

	texts := fake.texts()
	if len(texts) != 3 {
		t.Fatalf("ожидали 3 ответа, получили %d", len(texts))
	}
	if texts[1] != "👍🏻 1    👎🏻 0" {
		t.Fatalf("неожиданная статистика: %q", texts[1])
	}
	if texts[2] != helpText {
		t.Fatalf("ожидали справку, получили %q", texts[2])
	}
}

func TestHandleIgnoresPlainTextAndEmptyUpdates(t *testing.T) {
	h, fake, mem := newHandler(t)
	ctx := context.Background()

	h.HandleUpdate(ctx, message("merci"))
	h.HandleUpdate(ctx, tgbotapi.Update{})
	if got := len(fake.texts()); got != 0 {
		t.Fatalf("ожидали тишину, получили %d ответов", got)
	}

	h.HandleUpdate(ctx, message("/like"))
	if n, _ := mem.CountReactions(ctx, domain.ReactionLike); n != 0 {
		t.Fatalf("команда без id не должна сохраняться, получили %d", n)
	}
	if texts := fake.texts(); len(texts) != 1 || !strings.Contains(texts[0], "/like123") {
		t.Fatalf("ожидали подсказку, получили %q", texts)
	}
}

func TestHandleChannelPost(t *testing.T) {
	h, _, mem := newHandler(t)
	ctx := context.Background()
	h.HandleUpdate(ctx, tgbotapi.Update{ChannelPost: &tgbotapi.Message{Text: "/dislike5", Chat: &tgbotapi.Chat{ID: -100}}})
	if n, _ := mem.CountReactions(ctx, domain.ReactionDislike); n != 1 {
		t.Fatalf("ожидали реакцию из канала, получили %d", n)
	}
}

func TestServeHTTPDecodesUpdate(t *testing.T) {
	h, _, mem := newHandler(t)

	body := `{"update_id":1,"message":{"message_id":3,"date":0,"chat":{"id":7,"type":"private"},"text":"/like88"}}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/bot/webhook", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}
	if n, _ := mem.CountReactions(context.Background(), domain.ReactionLike); n != 1 {
		t.Fatalf("ожидали сохранённую реакцию, получили %d", n)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/bot/webhook", strings.NewReader("{")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("ожидали 400, получили %d", rec.Code)
	}
}
