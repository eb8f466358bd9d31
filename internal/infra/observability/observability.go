// Package observability holds the Prometheus metrics for the burn gateway.
// Metrics are registered at init via promauto and served on /metrics when
// enabled in configuration.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Burn Pipeline Metrics ──────────────────────────────────────────────────

// BurnRequests counts burn reports by terminal outcome.
// Outcomes: accepted, bad_request, rate_limited, tx_not_found, tx_failed,
// no_burn_instruction, signer_mismatch, already_processed, error.
var BurnRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "burngate",
	Subsystem: "burn",
	Name:      "requests_total",
	Help:      "Total burn reports by terminal outcome.",
}, []string{"outcome"})

// CreditsAwarded tracks total virtual credits awarded for verified burns.
var CreditsAwarded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "burngate",
	Subsystem: "burn",
	Name:      "credits_awarded_total",
	Help:      "Total virtual credits awarded for verified burns.",
})

// ReplayPrefilterHits counts replays caught before the ledger round-trip.
var ReplayPrefilterHits = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "burngate",
	Subsystem: "burn",
	Name:      "replay_prefilter_hits_total",
	Help:      "Replayed signatures rejected before querying the ledger.",
})

// ─── Chain Metrics ──────────────────────────────────────────────────────────

// VerifyDuration tracks ledger verification latency.
var VerifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "burngate",
	Subsystem: "chain",
	Name:      "verify_duration_seconds",
	Help:      "Latency of on-chain burn verification.",
	Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
})

// ─── Balance Metrics ────────────────────────────────────────────────────────

// BalanceQueries counts balance lookups.
var BalanceQueries = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "burngate",
	Subsystem: "balance",
	Name:      "queries_total",
	Help:      "Total balance lookups.",
})
