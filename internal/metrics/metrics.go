// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsIssued counts issued play sessions
	SessionsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phizone_play_sessions_issued_total",
		Help: "Number of play sessions issued.",
	})

	// SubmissionsAccepted counts record submissions that produced a record
	SubmissionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phizone_record_submissions_accepted_total",
		Help: "Number of record submissions accepted.",
	})

	// SubmissionsRejected counts rejected submissions by reason
	SubmissionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phizone_record_submissions_rejected_total",
		Help: "Number of record submissions rejected, by reason.",
	}, []string{"reason"})

	// SubmissionDuration observes end-to-end submission handling time
	SubmissionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "phizone_record_submission_duration_seconds",
		Help:    "Time spent handling a record submission.",
		Buckets: prometheus.DefBuckets,
	})
)
