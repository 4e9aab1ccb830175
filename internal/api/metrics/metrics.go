// Package metrics defines and registers all custom Prometheus metrics for the
// coupon redemption service. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics are registered with the default Prometheus registry via promauto at
// package load; the /metrics route exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "coupon"

// ── Claim metrics ─────────────────────────────────────────────────────────────

// ClaimsTotal counts claim requests by terminal state.
// Label:
//   - state: "banned", "already_claimed", "quota_exhausted", "rewarded",
//     "empty_handed", or "error" (storage unavailable)
var ClaimsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "claims_total",
		Help:      "Total number of claim requests, by terminal state.",
	},
	[]string{"state"},
)

// ClaimDuration measures how long one claim request takes end-to-end.
// Label:
//   - state: the terminal claim state, or "error"
var ClaimDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "claim_duration_seconds",
		Help:      "Duration of claim processing from receipt to terminal state.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"state"},
)

// DuplicateDeliveriesTotal counts transport redelivery decisions.
// Label:
//   - result: "hit" (duplicate, skipped) or "miss" (new message, processed)
var DuplicateDeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duplicate_deliveries_total",
		Help:      "Total number of delivery dedup checks, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ── Reward upstream metrics ───────────────────────────────────────────────────

// RewardAttemptsTotal counts individual reward attempts.
// Label:
//   - result: "success", "empty", "status", "transport", "malformed"
var RewardAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reward_attempts_total",
		Help:      "Total number of reward API attempts, by result.",
	},
	[]string{"result"},
)

// RewardsIssuedTotal counts coupons successfully redeemed and credited.
var RewardsIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rewards_issued_total",
		Help:      "Total number of coupons redeemed and durably credited.",
	},
)

// ── Background job metrics ────────────────────────────────────────────────────

// ActivityQueueDepth tracks the records waiting in each audit worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ActivityQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "activity_queue_depth",
		Help:      "Current number of audit records pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// DailyResetsTotal counts reset job runs.
// Label:
//   - result: "ok" or "error"
var DailyResetsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "daily_resets_total",
		Help:      "Total number of daily quota reset runs, by result.",
	},
	[]string{"result"},
)
