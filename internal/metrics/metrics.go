package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PermissionChecks counts decision-engine verdicts by outcome and reason.
var PermissionChecks = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "teamforge_permission_checks_total",
		Help: "Permission check verdicts by outcome and reason.",
	},
	[]string{"outcome", "reason"},
)

// PermissionCheckDuration observes end-to-end check latency including store
// round trips.
var PermissionCheckDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "teamforge_permission_check_duration_seconds",
		Help:    "Latency of single permission checks.",
		Buckets: prometheus.DefBuckets,
	},
)

// FeatureLimitDenials counts tier-gate denials by feature.
var FeatureLimitDenials = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "teamforge_feature_limit_denials_total",
		Help: "Actions denied by the subscription tier gate, by feature.",
	},
	[]string{"feature"},
)

// MatrixReplacements counts permission matrix replacements by entity type.
var MatrixReplacements = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "teamforge_permission_matrix_replacements_total",
		Help: "Permission matrix replace operations by entity type.",
	},
	[]string{"entity_type"},
)

// ObserveCheck records one verdict.
func ObserveCheck(allowed bool, reason string, seconds float64) {
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	PermissionChecks.WithLabelValues(outcome, reason).Inc()
	PermissionCheckDuration.Observe(seconds)
}
