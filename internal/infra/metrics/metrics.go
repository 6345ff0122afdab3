package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	PagesFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crawl_pages_fetched_total",
		Help: "Страницы ленты, полученные за запуск",
	})
	ItemsDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crawl_items_delivered_total",
		Help: "Новые объявления, отправленные в Telegram",
	})
	ItemsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crawl_items_skipped_total",
		Help: "Объявления, уже отправленные ранее",
	})
	ItemFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crawl_item_failures_total",
		Help: "Ошибки обработки отдельных объявлений",
	}, []string{"stage"})
	PoliteSleepSeconds = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crawl_polite_sleep_seconds_total",
		Help: "Суммарное время пауз между страницами",
	})
	RunDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "crawl_run_duration_seconds",
		Help:    "Длительность одного обхода",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})
	LastRunSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "crawl_last_run_success",
		Help: "1 если последний обход завершился успешно",
	})
	ReactionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_reactions_total",
		Help: "Реакции пользователя на объявления",
	}, []string{"kind"})
	BotSendErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_send_errors_total",
		Help: "Ошибки отправки сообщений ботом",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30, 60},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// Collectors возвращает все метрики сервиса.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		PagesFetched,
		ItemsDelivered,
		ItemsSkipped,
		ItemFailures,
		PoliteSleepSeconds,
		RunDurationSeconds,
		LastRunSuccess,
		ReactionsTotal,
		BotSendErrors,
		NetworkRequestDuration,
		NetworkRequestTotal,
	}
}

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(Collectors()...)
}

// Push отправляет метрики разового запуска в Pushgateway.
func Push(ctx context.Context, gatewayURL, job string, gatherer prometheus.Gatherer) error {
	if gatewayURL == "" {
		return nil
	}
	if err := push.New(gatewayURL, job).Gatherer(gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveRun фиксирует итог обхода.
func ObserveRun(duration time.Duration, success bool) {
	RunDurationSeconds.Observe(duration.Seconds())
	if success {
		LastRunSuccess.Set(1)
		return
	}
	LastRunSuccess.Set(0)
}
