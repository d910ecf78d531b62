package observability

import (
	"time"

	"crimemap/internal/classify"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "crimemap"

// Metrics holds the Prometheus collectors for imports and the dashboard.
type Metrics struct {
	RowsClassified *prometheus.CounterVec // labels: reason
	Imports        *prometheus.CounterVec // labels: outcome
	RecordsLoaded  prometheus.Gauge

	HTTPRequests        *prometheus.CounterVec   // labels: route, code
	HTTPRequestDuration *prometheus.HistogramVec // labels: route
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.RowsClassified,
		m.Imports,
		m.RecordsLoaded,
		m.HTTPRequests,
		m.HTTPRequestDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(text string) string {
		if withHelp {
			return text
		}
		return ""
	}

	return &Metrics{
		RowsClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_classified_total",
			Help:      help("Report rows seen by the parser, by classification reason."),
		}, []string{"reason"}),
		Imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      help("Workbook imports by outcome."),
		}, []string{"outcome"}),
		RecordsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_loaded",
			Help:      help("Records in the dataset currently served."),
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      help("Dashboard HTTP requests by route and status code."),
		}, []string{"route", "code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      help("Dashboard HTTP request duration in seconds."),
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route"}),
	}
}

// ObserveRows adds per-reason row counts from one parse. Accepted rows are
// counted under classify.ReasonAccepted.
func (m *Metrics) ObserveRows(skipped map[classify.Reason]int, accepted int) {
	if m == nil {
		return
	}
	for reason, count := range skipped {
		if count > 0 {
			m.RowsClassified.WithLabelValues(string(reason)).Add(float64(count))
		}
	}
	if accepted > 0 {
		m.RowsClassified.WithLabelValues(string(classify.ReasonAccepted)).Add(float64(accepted))
	}
}

func (m *Metrics) ObserveImport(outcome string, records int) {
	if m == nil {
		return
	}
	m.Imports.WithLabelValues(outcome).Inc()
	if records >= 0 {
		m.RecordsLoaded.Set(float64(records))
	}
}

func (m *Metrics) ObserveRequest(route, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, code).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
