package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stridestats/stridestats/internal/models"
)

// Collector exposes Prometheus metrics for inbound HTTP requests and the
// refresh pipeline. It satisfies both jobs.PipelineMetrics and
// artifacts.BuildMetrics.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	jobsEnqueued     *prometheus.CounterVec
	jobsFinished     *prometheus.CounterVec
	artifactsWritten prometheus.Counter
	generatorFailed  *prometheus.CounterVec
}

// NewCollector constructs a collector with default histograms/counters.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stridestats",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stridestats",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	jobsEnqueued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stridestats",
		Subsystem: "jobs",
		Name:      "enqueued_total",
		Help:      "Total number of refresh jobs enqueued.",
	}, []string{"tier"})

	jobsFinished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stridestats",
		Subsystem: "jobs",
		Name:      "finished_total",
		Help:      "Total number of refresh jobs reaching a terminal state.",
	}, []string{"tier", "state"})

	artifactsWritten := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "stridestats",
		Subsystem: "artifacts",
		Name:      "written_total",
		Help:      "Total number of artifacts written to the cache.",
	})

	generatorFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stridestats",
		Subsystem: "artifacts",
		Name:      "generator_failures_total",
		Help:      "Total number of generator failures during artifact builds.",
	}, []string{"generator"})

	collectors := []prometheus.Collector{
		requestDuration,
		requestTotal,
		jobsEnqueued,
		jobsFinished,
		artifactsWritten,
		generatorFailed,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:         registry,
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		jobsEnqueued:     jobsEnqueued,
		jobsFinished:     jobsFinished,
		artifactsWritten: artifactsWritten,
		generatorFailed:  generatorFailed,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// JobEnqueued records an accepted refresh job.
func (c *Collector) JobEnqueued(tier models.Tier) {
	c.jobsEnqueued.WithLabelValues(string(tier)).Inc()
}

// JobFinished records a job reaching a terminal state.
func (c *Collector) JobFinished(tier models.Tier, state models.JobState) {
	c.jobsFinished.WithLabelValues(string(tier), string(state)).Inc()
}

// ArtifactWritten records a successful artifact write.
func (c *Collector) ArtifactWritten() {
	c.artifactsWritten.Inc()
}

// GeneratorFailed records a generator failure during a build.
func (c *Collector) GeneratorFailed(name string) {
	c.generatorFailed.WithLabelValues(name).Inc()
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
