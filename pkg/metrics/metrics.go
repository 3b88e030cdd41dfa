package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "legalmind", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "legalmind", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	PresenceJoins = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "legalmind", Subsystem: "presence", Name: "joins_total", Help: "Number of editor joins (including refreshes)."},
	)
	VersionsSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "legalmind", Subsystem: "versions", Name: "saved_total", Help: "Number of saved versions by demote mode."},
		[]string{"demote"},
	)
	CommentOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "legalmind", Subsystem: "comments", Name: "operations_total", Help: "Comment mutations by operation."},
		[]string{"op"},
	)
	Invitations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "legalmind", Subsystem: "collaborators", Name: "invitations_total", Help: "Invitations by outcome."},
		[]string{"outcome"},
	)
	NotificationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "legalmind", Subsystem: "notifications", Name: "created_total", Help: "Created notifications by kind."},
		[]string{"kind"},
	)
	DeadlineScans = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "legalmind", Subsystem: "deadlines", Name: "scans_total", Help: "Number of completed deadline scans."},
	)
	StorageErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "legalmind", Subsystem: "storage", Name: "swallowed_errors_total", Help: "Storage errors logged and treated as empty results."},
		[]string{"store"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(PresenceJoins)
	reg.MustRegister(VersionsSaved)
	reg.MustRegister(CommentOps)
	reg.MustRegister(Invitations)
	reg.MustRegister(NotificationsCreated)
	reg.MustRegister(DeadlineScans)
	reg.MustRegister(StorageErrors)
}
