package crawl

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bbsit-bot/internal/domain"
	"bbsit-bot/internal/infra/metrics"
)

// DefaultLookahead горизонт обхода по умолчанию.
const DefaultLookahead = 7 * 24 * time.Hour

const recordTimeout = 10 * time.Second

// State состояние обхода.
type State string

const (
	StateAdvancing  State = "advancing"
	StateProcessing State = "processing"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Report итог одного обхода.
type Report struct {
	RunID     string
	State     State
	Pages     int
	Delivered int
	Skipped   int
	Failed    int
	Cursor    time.Time
}

// Options настраивает обход.
type Options struct {
	Lookahead time.Duration
	Pacer     Pacer
	Now       func() time.Time
}

// Service обходит ленту и отправляет новые объявления.
type Service struct {
	feed      domain.FeedClient
	seen      domain.SeenStore
	notifier  domain.Notifier
	publisher domain.ItemPublisher
	log       zerolog.Logger
	lookahead time.Duration
	pacer     Pacer
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewService создаёт сервис обхода. publisher может быть nil.
func NewService(feed domain.FeedClient, seen domain.SeenStore, notifier domain.Notifier, publisher domain.ItemPublisher, logger zerolog.Logger, opts Options) *Service {
	if opts.Lookahead <= 0 {
		opts.Lookahead = DefaultLookahead
	}
	if opts.Pacer == nil {
		opts.Pacer = NoPause
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		feed:      feed,
		seen:      seen,
		notifier:  notifier,
		publisher: publisher,
		log:       logger.With().Str("component", "crawl").Logger(),
		lookahead: opts.Lookahead,
		pacer:     opts.Pacer,
		now:       opts.Now,
		sleep:     sleepContext,
	}
}

// Run выполняет один обход: от начала текущего дня до горизонта.
func (s *Service) Run(ctx context.Context) (Report, error) {
	report := Report{RunID: uuid.NewString(), State: StateAdvancing}
	log := s.log.With().Str("run_id", report.RunID).Logger()
	horizon := s.now().Add(s.lookahead)
	log.Info().Time("horizon", horizon).Msg("crawl: запуск обхода")

	var cursor *time.Time
	for {
		if err := ctx.Err(); err != nil {
			return s.fail(log, report, err)
		}

		report.State = StateAdvancing
		page, err := s.feed.FetchPage(ctx, cursor)
		if err != nil {
			return s.fail(log, report, fmt.Errorf("страница %d: %w", report.Pages+1, err))
		}
		report.Pages++
		metrics.PagesFetched.Inc()

		next, ok := page.LastDay()
		if !ok {
			log.Info().Int("page", report.Pages).Msg("crawl: пустая страница, обход завершён")
			return s.done(log, report)
		}
		if err := checkOrder(page, cursor); err != nil {
			return s.fail(log, report, err)
		}

		report.State = StateProcessing
		delivered, err := s.processPage(ctx, log, page, &report)
		if err != nil {
			return s.fail(log, report, err)
		}

		if cursor != nil && next.Equal(*cursor) {
			log.Warn().Time("cursor", next).Msg("crawl: лента не продвинулась, обход завершён")
			return s.done(log, report)
		}
		cursor = &next
		report.Cursor = next

		if !next.Before(horizon) {
			return s.done(log, report)
		}

		if delivered {
			pause := s.pacer()
			log.Debug().Dur("pause", pause).Msg("crawl: пауза перед следующей страницей")
			if err := s.sleep(ctx, pause); err != nil {
				return s.fail(log, report, err)
			}
			metrics.PoliteSleepSeconds.Add(pause.Seconds())
		}
	}
}

// checkOrder проверяет, что дни внутри страницы и между страницами не убывают.
func checkOrder(page domain.Page, prev *time.Time) error {
	for i := 1; i < len(page.Groups); i++ {
		if page.Groups[i].Day.Before(page.Groups[i-1].Day) {
			return fmt.Errorf("%w: день %s после %s", domain.ErrCursorRegression,
				page.Groups[i].Day.Format(time.DateTime), page.Groups[i-1].Day.Format(time.DateTime))
		}
	}
	last, _ := page.LastDay()
	if prev != nil && last.Before(*prev) {
		return fmt.Errorf("%w: курсор %s меньше предыдущего %s", domain.ErrCursorRegression,
			last.Format(time.DateTime), prev.Format(time.DateTime))
	}
	return nil
}

// processPage обрабатывает объявления страницы по порядку. Ошибка возвращается только для
// фатальных ситуаций: хранилище недоступно или контекст отменён.
func (s *Service) processPage(ctx context.Context, log zerolog.Logger, page domain.Page, report *Report) (bool, error) {
	delivered := false
	for _, group := range page.Groups {
		for _, item := range group.Items {
			if err := ctx.Err(); err != nil {
				return delivered, err
			}
			seen, err := s.seen.Contains(ctx, item.ID)
			if err != nil {
				return delivered, err
			}
			if seen {
				report.Skipped++
				metrics.ItemsSkipped.Inc()
				continue
			}
			ok, err := s.deliver(ctx, log, item)
			if err != nil {
				report.Failed++
				return delivered, err
			}
			if !ok {
				report.Failed++
				continue
			}
			report.Delivered++
			delivered = true
		}
	}
	return delivered, nil
}

// deliver форматирует, отправляет и только после успешной отправки записывает объявление.
func (s *Service) deliver(ctx context.Context, log zerolog.Logger, item domain.RawItem) (bool, error) {
	text, err := FormatItem(item)
	if err != nil {
		reportItemFailure(log, "format", item, err)
		return false, nil
	}
	if err := s.notifier.Send(ctx, domain.Notification{ItemID: item.ID, Text: text}); err != nil {
		reportItemFailure(log, "delivery", item, err)
		return false, nil
	}
	// Сообщение уже ушло: запись не должна зависеть от сигнала остановки.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := s.seen.Record(recordCtx, item); err != nil {
		reportItemFailure(log, "record", item, err)
		return false, err
	}
	metrics.ItemsDelivered.Inc()
	log.Info().Str("item", item.ID).RawJSON("data", payload(item)).Msg("crawl: найдено новое объявление")

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, item); err != nil {
			log.Warn().Err(err).Str("item", item.ID).Msg("crawl: не удалось опубликовать объявление")
		}
	}
	return true, nil
}

func reportItemFailure(log zerolog.Logger, stage string, item domain.RawItem, err error) {
	metrics.ItemFailures.WithLabelValues(stage).Inc()
	log.Error().Err(err).Str("stage", stage).Str("item", item.ID).RawJSON("data", payload(item)).
		Msg("crawl: ошибка обработки объявления")
}

func payload(item domain.RawItem) []byte {
	if len(item.Raw) == 0 || !json.Valid(item.Raw) {
		return []byte("null")
	}
	return item.Raw
}

func (s *Service) done(log zerolog.Logger, report Report) (Report, error) {
	report.State = StateDone
	log.Info().
		Int("pages", report.Pages).
		Int("delivered", report.Delivered).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("crawl: обход завершён")
	return report, nil
}

func (s *Service) fail(log zerolog.Logger, report Report, err error) (Report, error) {
	failedIn := report.State
	report.State = StateFailed
	log.Error().Err(err).
		Str("state", string(failedIn)).
		Int("pages", report.Pages).
		Int("delivered", report.Delivered).
		Msg("crawl: обход прерван")
	return report, err
}
