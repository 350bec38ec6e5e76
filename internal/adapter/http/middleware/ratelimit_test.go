package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/txledger/internal/infrastructure/metrics"
)

func serve(handler http.Handler, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterThrottlesPerClient(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	rl := NewRateLimiter(1, 2, m)
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	for i := 0; i < 2; i++ {
		if code := serve(handler, "1.2.3.4:1234"); code != http.StatusAccepted {
			t.Fatalf("request %d: expected 202 within burst, got %d", i, code)
		}
	}
	// Another port on the same host shares the bucket.
	if code := serve(handler, "1.2.3.4:5678"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once burst is spent, got %d", code)
	}
	if code := serve(handler, "5.6.7.8:1234"); code != http.StatusAccepted {
		t.Fatalf("expected other client to pass, got %d", code)
	}

	if got := testutil.ToFloat64(m.RateLimitHits); got != 1 {
		t.Fatalf("expected 1 rate limit hit, got %v", got)
	}
	if rl.Len() != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", rl.Len())
	}
}

func TestRateLimiterWithoutMetrics(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	serve(handler, "1.2.3.4:1234")
	if code := serve(handler, "1.2.3.4:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
}

func TestRateLimiterPrune(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1, nil)
	rl.now = func() time.Time { return now }
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	serve(handler, "1.2.3.4:1234")
	now = now.Add(5 * time.Minute)
	serve(handler, "5.6.7.8:1234")
	now = now.Add(5 * time.Minute)

	if removed := rl.Prune(7 * time.Minute); removed != 1 {
		t.Fatalf("expected 1 idle limiter removed, got %d", removed)
	}
	if rl.Len() != 1 {
		t.Fatalf("expected 1 tracked client, got %d", rl.Len())
	}

	// A pruned client starts with a fresh bucket.
	if code := serve(handler, "1.2.3.4:1234"); code == http.StatusTooManyRequests {
		t.Fatalf("expected pruned client to be admitted")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"1.2.3.4:1234", "1.2.3.4"},
		{"[::1]:8080", "::1"},
		{"10.0.0.1", "10.0.0.1"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remoteAddr
		if got := clientIP(req); got != tt.want {
			t.Fatalf("clientIP(%q) = %q, want %q", tt.remoteAddr, got, tt.want)
		}
	}
}
