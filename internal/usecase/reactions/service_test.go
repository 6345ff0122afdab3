package reactions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"bbsit-bot/internal/domain"
	"bbsit-bot/internal/infra/metrics"
)

type repoStub struct {
	saved []domain.Reaction
	err   error
}

func (r *repoStub) SaveReaction(_ context.Context, rc domain.Reaction) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, rc)
	return nil
}

func (r *repoStub) CountReactions(_ context.Context, kind domain.ReactionKind) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	n := 0
	for _, rc := range r.saved {
		if rc.Kind == kind {
			n++
		}
	}
	return n, nil
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		text string
		kind domain.ReactionKind
		id   string
		err  error
	}{
		{text: "/like123", kind: domain.ReactionLike, id: "123"},
		{text: " /dislike42 ", kind: domain.ReactionDislike, id: "42"},
		{text: "/like77@bbsit_bot", kind: domain.ReactionLike, id: "77"},
		{text: "/like9 спасибо", kind: domain.ReactionLike, id: "9"},
		{text: "/like", err: ErrEmptyID},
		{text: "/dislike@bbsit_bot", err: ErrEmptyID},
		{text: "/like1;drop", err: ErrNotReaction},
		{text: "/start", err: ErrNotReaction},
		{text: "привет", err: ErrNotReaction},
	}
	for _, tc := range cases {
		kind, id, err := ParseCommand(tc.text)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%q: ожидали %v, получили %v", tc.text, tc.err, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: не ожидали ошибку: %v", tc.text, err)
		}
		if kind != tc.kind || id != tc.id {
			t.Fatalf("%q: получили %s/%s", tc.text, kind, id)
		}
	}
}

func TestHandleSavesReaction(t *testing.T) {
	repo := &repoStub{}
	svc := NewService(repo)
	at := time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return at }

	before := testutil.ToFloat64(metrics.ReactionsTotal.WithLabelValues("like"))
	r, err := svc.Handle(context.Background(), 99, "/like555")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if r.ItemID != "555" || r.ChatID != 99 || !r.At.Equal(at) {
		t.Fatalf("неожиданная реакция: %+v", r)
	}
	if len(repo.saved) != 1 {
		t.Fatalf("ожидали одну запись, получили %d", len(repo.saved))
	}
	if got := testutil.ToFloat64(metrics.ReactionsTotal.WithLabelValues("like")); got != before+1 {
		t.Fatalf("счётчик реакций не увеличился: %v", got)
	}
}

func TestHandleRepoError(t *testing.T) {
	repo := &repoStub{err: domain.ErrStore}
	svc := NewService(repo)
	if _, err := svc.Handle(context.Background(), 1, "/dislike1"); !errors.Is(err, domain.ErrStore) {
		t.Fatalf("ожидали ErrStore, получили %v", err)
	}
	if _, err := svc.Stats(context.Background()); !errors.Is(err, domain.ErrStore) {
		t.Fatalf("ожидали ErrStore, получили %v", err)
	}
}

func TestStats(t *testing.T) {
	repo := &repoStub{}
	svc := NewService(repo)
	ctx := context.Background()
	for _, text := range []string{"/like1", "/like2", "/dislike3"} {
		if _, err := svc.Handle(ctx, 1, text); err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
	}
	st, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if st.Likes != 2 || st.Dislikes != 1 {
		t.Fatalf("неожиданные итоги: %+v", st)
	}
}
