package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Extraction metrics
	CandidatesExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refcheck_candidates_extracted_total",
			Help: "Citation candidates found, by origin",
		},
		[]string{"origin"},
	)

	// Validation metrics
	URLValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refcheck_url_validations_total",
			Help: "URL validations by result (valid or rejection reason)",
		},
		[]string{"result"},
	)

	URLValidationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "refcheck_url_validation_duration_seconds",
			Help:    "Time spent validating a single URL",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"result"},
	)

	ValidationBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "refcheck_validation_batch_size",
			Help:    "URLs per validation batch",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		},
	)

	// Assembly metrics
	SectionsAssembled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refcheck_sections_assembled_total",
			Help: "Section reference assemblies by policy and outcome",
		},
		[]string{"policy", "outcome"},
	)

	ReferencesPerSection = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "refcheck_references_per_section",
			Help:    "Working references emitted per section",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 10, 15},
		},
	)

	// Audit metrics
	AuditWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refcheck_audit_writes_total",
			Help: "Audit event writes by sink and status",
		},
		[]string{"sink", "status"},
	)

	// HTTP API metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refcheck_http_requests_total",
			Help: "API requests by route and status code",
		},
		[]string{"route", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "refcheck_http_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)
