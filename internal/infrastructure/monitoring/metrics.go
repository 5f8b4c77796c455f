package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Generation metrics
	GenerationsTotal *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec
	ComponentsUsed   prometheus.Histogram
	ReconciledSteps  prometheus.Counter
	DegradedTotal    *prometheus.CounterVec

	// Collaborator metrics
	LLMCalls       *prometheus.CounterVec
	LLMDuration    *prometheus.HistogramVec
	VectorCalls    *prometheus.CounterVec
	VectorDuration *prometheus.HistogramVec

	// Ingestion metrics
	IngestJobs          *prometheus.CounterVec
	IngestActive        prometheus.Gauge
	IngestedComponents  prometheus.Counter
	IngestedDesignFiles prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge

	startTime time.Time
}

// NewMetrics creates a new metrics collector on a private registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zencode_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zencode_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"method", "path"},
		),

		GenerationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zencode_generations_total",
				Help: "Generation requests by outcome (success or error kind)",
			},
			[]string{"outcome"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zencode_stage_duration_seconds",
				Help:    "Pipeline stage duration in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"stage", "status"},
		),
		ComponentsUsed: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "zencode_components_used",
				Help:    "Components placed in a prompt",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
			},
		),
		ReconciledSteps: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "zencode_reconciled_steps_total",
				Help: "Steps added by dependency reconciliation",
			},
		),
		DegradedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zencode_degraded_total",
				Help: "Non-fatal failures by kind (parse, reconcile, persist)",
			},
			[]string{"kind"},
		),

		LLMCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zencode_llm_calls_total",
				Help: "LLM completion calls",
			},
			[]string{"provider", "status"},
		),
		LLMDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zencode_llm_duration_seconds",
				Help:    "LLM completion latency in seconds",
				Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 30, 60, 120, 240},
			},
			[]string{"provider"},
		),
		VectorCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zencode_vector_calls_total",
				Help: "Vector index calls",
			},
			[]string{"operation", "status"},
		),
		VectorDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zencode_vector_duration_seconds",
				Help:    "Vector index latency in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"operation"},
		),

		IngestJobs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zencode_ingest_jobs_total",
				Help: "Ingestion jobs by terminal status",
			},
			[]string{"status"},
		),
		IngestActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "zencode_ingest_jobs_active",
				Help: "Ingestion jobs currently in progress",
			},
		),
		IngestedComponents: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "zencode_ingested_components_total",
				Help: "Components indexed by ingestion",
			},
		),
		IngestedDesignFiles: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "zencode_ingested_design_files_total",
				Help: "Design files stored by ingestion",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "zencode_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "zencode_uptime_seconds",
			Help: "Backend uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordStage records the duration of one pipeline stage
func (m *Metrics) RecordStage(stage, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage, status).Observe(duration.Seconds())
}

// RecordGeneration records the outcome of a generation request
func (m *Metrics) RecordGeneration(outcome string, componentsUsed, reconciled int) {
	if m == nil {
		return
	}
	m.GenerationsTotal.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		m.ComponentsUsed.Observe(float64(componentsUsed))
		m.ReconciledSteps.Add(float64(reconciled))
	}
}

// RecordDegraded counts a failure that was absorbed instead of returned
func (m *Metrics) RecordDegraded(kind string) {
	if m == nil {
		return
	}
	m.DegradedTotal.WithLabelValues(kind).Inc()
}

// RecordLLMCall records one completion call
func (m *Metrics) RecordLLMCall(provider, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.LLMCalls.WithLabelValues(provider, status).Inc()
	m.LLMDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordVectorCall records one vector index call
func (m *Metrics) RecordVectorCall(operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.VectorCalls.WithLabelValues(operation, status).Inc()
	m.VectorDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// IngestStarted marks a job as in progress
func (m *Metrics) IngestStarted() {
	if m == nil {
		return
	}
	m.IngestActive.Inc()
}

// IngestFinished records a job reaching a terminal status
func (m *Metrics) IngestFinished(status string, components, designFiles int) {
	if m == nil {
		return
	}
	m.IngestActive.Dec()
	m.IngestJobs.WithLabelValues(status).Inc()
	m.IngestedComponents.Add(float64(components))
	m.IngestedDesignFiles.Add(float64(designFiles))
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}
