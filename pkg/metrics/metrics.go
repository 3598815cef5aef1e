package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// IndexedHeight is the sequence number of the last block applied to the
	// index.
	IndexedHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ordinalindex_indexed_height",
			Help: "Sequence number of the last block applied to the index",
		},
	)

	// InscriptionsTotal counts indexed inscriptions by kind.
	InscriptionsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ordinalindex_inscriptions_total",
			Help: "Total inscriptions indexed by kind",
		},
		[]string{"kind"},
	)

	// NamesTotal is the total number of registered name records.
	NamesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ordinalindex_names_total",
			Help: "Total number of registered names",
		},
	)

	// TokensTotal is the total number of deployed tokens.
	TokensTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ordinalindex_tokens_total",
			Help: "Total number of deployed tokens",
		},
	)

	// KVFailuresTotal counts KV operations that returned an error.
	KVFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ordinalindex_kv_failures_total",
			Help: "Total number of KV operations that returned an error",
		},
	)

	// RollbacksTotal counts blocks removed due to a reorg.
	RollbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ordinalindex_rollbacks_total",
			Help: "Total number of blocks removed due to a reorg",
		},
	)

	// BlockApplyDuration measures how long applying one block takes.
	BlockApplyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ordinalindex_block_apply_duration_seconds",
			Help:    "Time taken to apply a block to the index",
			Buckets: prometheus.DefBuckets,
		},
	)

	// QSSConnections is the number of currently open WebSocket connections.
	QSSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ordinalindex_qss_connections",
			Help: "Currently open WebSocket connections",
		},
	)

	// QSSMessagesSentTotal counts notification messages broadcast to
	// subscribers.
	QSSMessagesSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ordinalindex_qss_messages_sent_total",
			Help: "Total notification messages broadcast to subscribers",
		},
	)

	// QSSRequestsTotal counts inbound query requests by type code and
	// outcome.
	QSSRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordinalindex_qss_requests_total",
			Help: "Total inbound query requests by type and status",
		},
		[]string{"type", "status"},
	)

	// QSSRequestDuration measures request handling latency in the query
	// server.
	QSSRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ordinalindex_qss_request_duration_seconds",
			Help:    "Query request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(IndexedHeight)
	prometheus.MustRegister(InscriptionsTotal)
	prometheus.MustRegister(NamesTotal)
	prometheus.MustRegister(TokensTotal)
	prometheus.MustRegister(KVFailuresTotal)
	prometheus.MustRegister(RollbacksTotal)
	prometheus.MustRegister(BlockApplyDuration)
	prometheus.MustRegister(QSSConnections)
	prometheus.MustRegister(QSSMessagesSentTotal)
	prometheus.MustRegister(QSSRequestsTotal)
	prometheus.MustRegister(QSSRequestDuration)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
