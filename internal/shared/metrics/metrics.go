package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "igma"

var (
	registry = prometheus.NewRegistry()

	computationStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "computation_started_total",
		Help:      "Total assessment computations started",
	})
	computationCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "computation_completed_total",
		Help:      "Total assessment computations completed",
	})
	computationFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "computation_failed_total",
		Help:      "Total assessment computations failed",
	})
	computationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "computation_duration_ms",
		Help:      "Assessment computation duration in milliseconds",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	})
	configurationErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "indicator_configuration_errors_total",
		Help:      "Indicators skipped because of an inconsistent definition",
	})
	regressionAlerts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "regression_alerts_raised_total",
		Help:      "Regression alerts raised or escalated",
	}, []string{"pillar", "level"})
	workerJobs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "worker_jobs_total",
		Help:      "Queue messages processed by outcome",
	}, []string{"outcome"})
)

func init() {
	registry.MustRegister(
		computationStarted,
		computationCompleted,
		computationFailed,
		computationDuration,
		configurationErrors,
		regressionAlerts,
		workerJobs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// IncComputationStarted increments the started counter.
func IncComputationStarted() {
	computationStarted.Inc()
}

// IncComputationCompleted increments the completed counter.
func IncComputationCompleted() {
	computationCompleted.Inc()
}

// IncComputationFailed increments the failed counter.
func IncComputationFailed() {
	computationFailed.Inc()
}

// ObserveComputationDuration records a computation duration.
func ObserveComputationDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	computationDuration.Observe(float64(d) / float64(time.Millisecond))
}

// AddConfigurationErrors counts indicators skipped for bad definitions.
func AddConfigurationErrors(n int) {
	if n > 0 {
		configurationErrors.Add(float64(n))
	}
}

// IncRegressionAlert counts a raised or escalated regression alert.
func IncRegressionAlert(pillar, level string) {
	regressionAlerts.WithLabelValues(pillar, level).Inc()
}

// IncWorkerJob counts a processed queue message by outcome.
func IncWorkerJob(outcome string) {
	workerJobs.WithLabelValues(outcome).Inc()
}

// Registry exposes the registry for tests and custom exporters.
func Registry() *prometheus.Registry {
	return registry
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
