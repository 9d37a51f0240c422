// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentIntentsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eta_payment_intents_created_total",
			Help: "Total number of payment intents created",
		},
	)

	SubmissionsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eta_submissions_completed_total",
			Help: "Total number of completed submissions by outcome",
		},
		[]string{"outcome"}, // fresh or duplicate
	)

	SubmissionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eta_submission_failures_total",
			Help: "Total number of failed submissions by stage",
		},
		[]string{"stage", "error_code"},
	)

	SubmissionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "eta_submission_duration_seconds",
			Help: "Duration of the submission flow in seconds",
		},
	)

	StatusLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eta_status_lookups_total",
			Help: "Total number of status lookups by result",
		},
		[]string{"result"}, // found, not_found, cached
	)

	SoftFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eta_soft_failures_total",
			Help: "Total number of logged-and-swallowed failures by operation",
		},
		[]string{"operation"}, // photo_upload, confirmation_email, operator_email, sms, search_index
	)
)
