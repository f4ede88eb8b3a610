// Package metrics defines and registers all custom Prometheus metrics for the
// CasaLinger session gateway. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation (promauto).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "session_gateway"

// ── Resolution metrics ────────────────────────────────────────────────────────

// ResolutionsTotal counts finished resolutions.
// Label:
//   - outcome: "agent", "renter", "admin", "guest" or "superseded"
var ResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolutions_total",
		Help:      "Total number of session resolutions, by outcome.",
	},
	[]string{"outcome"},
)

// LookupsTotal counts individual profile lookups.
// Labels:
//   - role: the role looked up
//   - result: "found", "not_found", "error" or "timeout"
var LookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_lookups_total",
		Help:      "Total number of role-profile lookups, by role and result.",
	},
	[]string{"role", "result"},
)

// LookupDuration measures a single profile lookup round-trip.
var LookupDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "profile_lookup_duration_seconds",
		Help:      "Duration of a single role-profile lookup.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"role"},
)

// ProviderEventsTotal counts auth-provider events handled by the resolver.
var ProviderEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_events_total",
		Help:      "Total number of auth-provider session events, by type.",
	},
	[]string{"type"},
)

// ── Guard metrics ─────────────────────────────────────────────────────────────

// GuardDecisionsTotal counts route guard decisions.
// Label:
//   - decision: "allow", "redirect", "pending" or "timeout"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by decision.",
	},
	[]string{"decision"},
)

// ── Cache metrics ─────────────────────────────────────────────────────────────

// CacheOperationsTotal counts actor cache operations.
// Labels:
//   - op: "read", "write" or "clear"
//   - result: "hit", "miss", "ok", "corrupt" or "error"
var CacheOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_operations_total",
		Help:      "Total number of actor cache operations, by op and result.",
	},
	[]string{"op", "result"},
)

// IdleLogoutsTotal counts sessions ended by the inactivity monitor.
var IdleLogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idle_logouts_total",
		Help:      "Total number of sessions logged out after inactivity.",
	},
)
