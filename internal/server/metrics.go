package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docstruct_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docstruct_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Structuring metrics
	structureRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docstruct_structure_requests_total",
			Help: "Total number of document structuring runs",
		},
		[]string{"source", "status"}, // source: json, upload, websocket
	)

	structureDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docstruct_structure_duration_seconds",
			Help:    "Document structuring duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"source"},
	)

	sectionsProduced = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docstruct_sections_produced",
			Help:    "Number of sections produced per document",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)

	pagesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docstruct_pages_processed_total",
			Help: "Total number of pages structured",
		},
	)

	validationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docstruct_field_validation_failures_total",
			Help: "Total number of failed field validation checks",
		},
		[]string{"rule"},
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docstruct_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"type"}, // type: minute, hour, requests, data
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docstruct_upload_size_bytes",
			Help:    "Size of uploaded documents in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024, 100 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "docstruct_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docstruct_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)
