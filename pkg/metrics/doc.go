/*
Package metrics provides Prometheus metrics collection and exposition for the
ordinal index, plus the /health, /ready, and /live HTTP handlers used by
operators and orchestrators to probe process state.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  Index: indexed height, inscriptions/kind   │          │
	│  │  KV:    failure count                       │          │
	│  │  QSS:   active connections, messages sent   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint               │          │
	│  │  - Path: /metrics                           │          │
	│  │  - Handler: promhttp.Handler()              │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Metrics Catalog

ordinalindex_indexed_height:
  - Type: Gauge
  - Description: sequence number of the last block applied

ordinalindex_inscriptions_total{kind}:
  - Type: Gauge
  - Description: total inscriptions indexed by kind (name_op, token_deploy, token_mint)

ordinalindex_kv_failures_total:
  - Type: Counter
  - Description: total KV operations that returned an error

ordinalindex_qss_connections:
  - Type: Gauge
  - Description: currently open WebSocket connections

ordinalindex_qss_messages_sent_total:
  - Type: Counter
  - Description: total notification messages broadcast to subscribers

ordinalindex_block_apply_duration_seconds:
  - Type: Histogram
  - Description: time to apply one block to the index

# Usage

	metrics.IndexedHeight.Set(float64(seq))
	metrics.InscriptionsTotal.WithLabelValues("name_op").Inc()
	timer := metrics.NewTimer()
	// ... apply block ...
	timer.ObserveDuration(metrics.BlockApplyDuration)
*/
package metrics
