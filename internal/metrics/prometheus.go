package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gazetteer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gazetteer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Import metrics
	ImportRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gazetteer",
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Dataset rows by outcome (imported or skip reason)",
		},
		[]string{"dataset", "outcome"},
	)

	ImportRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gazetteer",
			Subsystem: "import",
			Name:      "runs_total",
			Help:      "Total number of import runs",
		},
		[]string{"result"},
	)

	ImportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gazetteer",
			Subsystem: "import",
			Name:      "duration_seconds",
			Help:      "Import run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
	)

	DatasetFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gazetteer",
			Subsystem: "import",
			Name:      "dataset_fetch_total",
			Help:      "Dataset fetch attempts by result",
		},
		[]string{"dataset", "result"},
	)

	// Resolver metrics
	ResolverFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gazetteer",
			Subsystem: "resolver",
			Name:      "failures_total",
			Help:      "Resolution failures per pass",
		},
		[]string{"pass", "entity"},
	)

	ResolverChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gazetteer",
			Subsystem: "resolver",
			Name:      "changes_total",
			Help:      "Rows written by the resolver per pass",
		},
		[]string{"pass"},
	)

	// Scheduler metrics
	SchedulerJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gazetteer",
			Subsystem: "scheduler",
			Name:      "jobs_total",
			Help:      "Total number of scheduled jobs executed",
		},
		[]string{"job_name", "status"},
	)

	LastSchedulerJobTime = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gazetteer",
			Subsystem: "scheduler",
			Name:      "last_job_timestamp",
			Help:      "Unix timestamp of last job execution",
		},
		[]string{"job_name"},
	)
)

// RecordHTTPRequest records an HTTP request metric
func RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordImportRows adds the outcome of one dataset parse
func RecordImportRows(dataset string, imported int, skipped map[string]int) {
	ImportRowsTotal.WithLabelValues(dataset, "imported").Add(float64(imported))
	for reason, n := range skipped {
		ImportRowsTotal.WithLabelValues(dataset, reason).Add(float64(n))
	}
}

// RecordImportRun records a finished import run
func RecordImportRun(success bool, duration time.Duration) {
	ImportRunsTotal.WithLabelValues(result(success)).Inc()
	ImportDuration.Observe(duration.Seconds())
}

// RecordDatasetFetch records the result of fetching one dataset
func RecordDatasetFetch(dataset, result string) {
	DatasetFetchTotal.WithLabelValues(dataset, result).Inc()
}

// RecordResolverFailure counts one failed (entity, language) pair
func RecordResolverFailure(pass, entity string) {
	ResolverFailuresTotal.WithLabelValues(pass, entity).Inc()
}

// RecordResolverChanges counts rows written by a resolver pass
func RecordResolverChanges(pass string, n int) {
	ResolverChangesTotal.WithLabelValues(pass).Add(float64(n))
}

// RecordSchedulerJob records a scheduler job execution
func RecordSchedulerJob(jobName string, success bool) {
	SchedulerJobsTotal.WithLabelValues(jobName, result(success)).Inc()
	LastSchedulerJobTime.WithLabelValues(jobName).SetToCurrentTime()
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
