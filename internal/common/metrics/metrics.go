// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RegistrationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registrations_created_total",
			Help: "Total number of registration requests submitted",
		},
	)

	RegistrationStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_status_changes_total",
			Help: "Total number of admin status transitions",
		},
		[]string{"status"},
	)

	LookupRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vehicle_lookup_requests_total",
			Help: "Total number of lookup oracle calls",
		},
		[]string{"outcome"},
	)

	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Total number of emails dispatched through the relay",
		},
		[]string{"kind"},
	)

	AttachmentsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "email_attachments_skipped_total",
			Help: "Total number of attachments skipped because the document fetch failed",
		},
	)

	DocumentsUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "documents_uploaded_total",
			Help: "Total number of wizard documents stored in object storage",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP request handling in seconds",
		},
		[]string{"route", "method", "status"},
	)
)
