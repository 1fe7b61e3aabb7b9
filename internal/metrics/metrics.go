// Package metrics holds the prometheus collectors for the voucher API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Split ──────────────────────────────────────────────────────────────────

// SplitSubmissions counts split submissions by outcome
// (success, rejected, timeout, unknown, auth, network, invalid, pending, error).
var SplitSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vouchersplit",
	Subsystem: "split",
	Name:      "submissions_total",
	Help:      "Split submissions by outcome.",
}, []string{"outcome"})

// SplitVouchersIssued counts vouchers created by successful splits.
var SplitVouchersIssued = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "vouchersplit",
	Subsystem: "split",
	Name:      "vouchers_issued_total",
	Help:      "Vouchers created by successful splits.",
})

// SessionTransitions counts split session state changes.
var SessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vouchersplit",
	Subsystem: "split",
	Name:      "session_transitions_total",
	Help:      "Split session state transitions.",
}, []string{"from", "to"})

// ─── Upstream ───────────────────────────────────────────────────────────────

// UpstreamLatency tracks calls to the voucher APIs.
var UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "vouchersplit",
	Subsystem: "upstream",
	Name:      "request_duration_seconds",
	Help:      "Latency of upstream voucher API calls.",
	Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
}, []string{"operation", "status"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequests counts API requests by route pattern and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vouchersplit",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "API requests by route and status.",
}, []string{"method", "route", "status"})

// RateLimited counts requests refused by the rate limiter.
var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "vouchersplit",
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Requests refused by the per-user rate limiter.",
})
