package bbst

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bbsit-bot/internal/domain"
	"bbsit-bot/internal/infra/metrics"
)

const (
	defaultBaseURL = "https://api.bbst.eu"
	feedPath       = "/home/babysitter/without_favorite"
	// CursorLayout формат параметра last_day: локальное время без смещения.
	CursorLayout = "2006-01-02 15:04:05"

	expandFields = "applications[0],children,babysitting_affinity_for_control_panel,is_me_in_smart_alert," +
		"parent,start_address,week_days,number_of_days_to_pay,next_local_start_time,is_hidden," +
		"payment_intents.last_payment_error_code"
)

// Заголовки мобильного приложения, без которых API отвечает 403.
var appHeaders = map[string]string{
	"accept":          "*/*",
	"accept-language": "en-GB,en;q=0.9",
	"x-api-version":   "1.0.0",
	"user-agent":      "BabySittor/401 CFNetwork/1399 Darwin/22.1.0",
	"x-app-build":     "401",
	"x-app-version":   "4.5.7",
	"x-platform":      "ios",
}

// Options описывает фильтр ленты и доступ к API.
type Options struct {
	BaseURL    string
	Session    string
	DeviceID   string
	Categories []string
	Limit      int
	MinScore   int
	Sorting    string
	Timeout    time.Duration
	Location   *time.Location
}

// Client получает страницы ленты объявлений.
type Client struct {
	http *http.Client
	opts Options
	log  zerolog.Logger
	now  func() time.Time
}

var _ domain.FeedClient = (*Client)(nil)

// NewClient создаёт клиента ленты.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Client{
		http: &http.Client{Timeout: opts.Timeout},
		opts: opts,
		log:  logger.With().Str("component", "feed").Logger(),
		now:  time.Now,
	}
}

// StartOfDay возвращает полночь дня t в часовом поясе loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// FetchPage запрашивает одну страницу ленты.
func (c *Client) FetchPage(ctx context.Context, cursor *time.Time) (domain.Page, error) {
	lastDay := StartOfDay(c.now(), c.opts.Location)
	if cursor != nil {
		lastDay = cursor.In(c.opts.Location)
	}

	endpoint := c.opts.BaseURL + feedPath + "?" + c.query(lastDay).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Page{}, fmt.Errorf("%w: build request: %v", domain.ErrFeed, err)
	}
	for k, v := range appHeaders {
		req.Header.Set(k, v)
	}
	if c.opts.DeviceID != "" {
		req.Header.Set("x-device-id", c.opts.DeviceID)
	}
	req.AddCookie(&http.Cookie{Name: "session", Value: c.opts.Session})

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("bbst", "fetch_page", "without_favorite", start, err)
		return domain.Page{}, fmt.Errorf("%w: do request: %v", domain.ErrFeed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("%w: status %d: %s", domain.ErrFeed, resp.StatusCode, strings.TrimSpace(string(data)))
		metrics.ObserveNetworkRequest("bbst", "fetch_page", "without_favorite", start, err)
		return domain.Page{}, err
	}

	body, err := io.ReadAll(resp.Body)
	metrics.ObserveNetworkRequest("bbst", "fetch_page", "without_favorite", start, err)
	if err != nil {
		return domain.Page{}, fmt.Errorf("%w: read body: %v", domain.ErrFeed, err)
	}
	return c.decodePage(body)
}

func (c *Client) query(lastDay time.Time) url.Values {
	q := url.Values{}
	q.Set("categories", strings.Join(c.opts.Categories, ","))
	q.Set("expand", expandFields)
	q.Set("last_day", lastDay.Format(CursorLayout))
	q.Set("limit", strconv.Itoa(c.opts.Limit))
	q.Set("limit_score", strconv.Itoa(c.opts.MinScore))
	q.Set("sorting", c.opts.Sorting)
	return q
}
