// Package metrics defines the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsCreated counts successfully scheduled sessions.
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geoattend_sessions_created_total",
		Help: "Number of attendance sessions created.",
	})

	// OverlapRejections counts creations rejected by the overlap rule.
	OverlapRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geoattend_session_overlap_rejections_total",
		Help: "Number of session creations rejected for double-booking.",
	})

	// ReportsGenerated counts persisted attendance reports.
	ReportsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geoattend_reports_generated_total",
		Help: "Number of attendance reports generated.",
	})

	// ExportsCompleted counts successful report exports by file type.
	ExportsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoattend_report_exports_total",
		Help: "Number of completed report exports.",
	}, []string{"file_type"})

	// EventsRelayed counts events the worker delivered to the audit log.
	EventsRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoattend_events_relayed_total",
		Help: "Number of domain events recorded by the relay worker.",
	}, []string{"event"})
)
