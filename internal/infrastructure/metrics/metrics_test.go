package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.TransactionsApplied == nil || m.HTTPRequests == nil || m.SinkWrites == nil || m.RateLimitHits == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.TransactionsApplied.WithLabelValues("deposit").Inc()
	m.AccountsCreated.Inc()
	m.RateLimitHits.Inc()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}

	if got := testutil.ToFloat64(m.TransactionsApplied.WithLabelValues("deposit")); got != 1 {
		t.Fatalf("expected 1 applied deposit, got %v", got)
	}
	if got := testutil.ToFloat64(m.RateLimitHits); got != 1 {
		t.Fatalf("expected 1 rate limit hit, got %v", got)
	}
}

func TestNewWithSeparateRegistries(t *testing.T) {
	// Each registry gets its own collectors, so two instances do not collide.
	first := New(prometheus.NewRegistry())
	second := New(prometheus.NewRegistry())

	first.AccountsLocked.Inc()

	if got := testutil.ToFloat64(second.AccountsLocked); got != 0 {
		t.Fatalf("expected independent counters, got %v", got)
	}
}
