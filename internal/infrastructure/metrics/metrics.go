package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transaction metrics
	TransactionsApplied  *prometheus.CounterVec
	TransactionsRejected *prometheus.CounterVec
	ApplyDuration        prometheus.Histogram
	RecordsSkipped       prometheus.Counter

	// Account metrics
	AccountsCreated prometheus.Counter
	AccountsLocked  prometheus.Counter

	// Dispute metrics
	DisputeTransitions *prometheus.CounterVec

	// Sink metrics
	SinkWrites   *prometheus.CounterVec
	SinkDuration *prometheus.HistogramVec

	// API metrics
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	RateLimitHits prometheus.Counter
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Transaction metrics
		TransactionsApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txledger_transactions_applied_total",
				Help: "Total transactions applied by type",
			},
			[]string{"kind"},
		),
		TransactionsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txledger_transactions_rejected_total",
				Help: "Total transactions ignored by type and reason",
			},
			[]string{"kind", "reason"},
		),
		ApplyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "txledger_apply_duration_seconds",
			Help:    "Duration of applying a single transaction",
			Buckets: []float64{.000001, .00001, .0001, .001, .01},
		}),
		RecordsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "txledger_records_skipped_total",
			Help: "Total malformed input records skipped",
		}),

		// Account metrics
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "txledger_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		AccountsLocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "txledger_accounts_locked_total",
			Help: "Total number of chargebacks that locked an account",
		}),

		// Dispute metrics
		DisputeTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txledger_dispute_transitions_total",
				Help: "Total dispute lifecycle transitions by resulting status",
			},
			[]string{"status"},
		),

		// Sink metrics
		SinkWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txledger_sink_writes_total",
				Help: "Total snapshot exports by sink and status",
			},
			[]string{"sink", "status"},
		),
		SinkDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "txledger_sink_duration_seconds",
				Help:    "Duration of snapshot exports",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"sink"},
		),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "txledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		RateLimitHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "txledger_rate_limit_hits_total",
				Help: "Requests rejected by the per-client rate limiter",
			},
		),
	}
}
