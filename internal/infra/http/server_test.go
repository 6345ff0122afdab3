package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

func TestServerHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_hits_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	s := NewServer(zerolog.Nop(), reg)
	ts := httptest.NewServer(s.Router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("неожиданный ответ healthz: %d %q", resp.StatusCode, body)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "test_hits_total 1") {
		t.Fatalf("метрика не найдена: %s", body)
	}
}

func TestRequireSecretToken(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	cases := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{name: "disabled", secret: "", header: "", want: http.StatusNoContent},
		{name: "match", secret: "s3cret", header: "s3cret", want: http.StatusNoContent},
		{name: "missing", secret: "s3cret", header: "", want: http.StatusUnauthorized},
		{name: "wrong", secret: "s3cret", header: "nope", want: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/bot/webhook", nil)
			if tc.header != "" {
				req.Header.Set(SecretTokenHeader, tc.header)
			}
			rec := httptest.NewRecorder()
			RequireSecretToken(tc.secret)(ok).ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("ожидали %d, получили %d", tc.want, rec.Code)
			}
		})
	}
}
