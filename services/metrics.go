package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_submissions_total",
			Help: "Total number of message submissions by outcome",
		},
		[]string{"outcome"},
	)

	moderationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_moderation_requests_total",
			Help: "Total number of classifier calls",
		},
		[]string{"status"},
	)

	moderationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "board_moderation_duration_seconds",
			Help:    "Duration of classifier calls in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_notifications_total",
			Help: "Total number of moderator notifications by status",
		},
		[]string{"status"},
	)
)

// RecordSubmission учитывает исход попытки публикации
// (published, pending_review, bad_input, unauthenticated, forbidden, store_error)
func RecordSubmission(outcome string) {
	submissionsTotal.WithLabelValues(outcome).Inc()
}

func RecordModeration(err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	moderationRequestsTotal.WithLabelValues(status).Inc()
	moderationDuration.Observe(duration.Seconds())
}

func RecordNotification(status string) {
	notificationsTotal.WithLabelValues(status).Inc()
}
