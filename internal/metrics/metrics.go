package metrics

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 汇总 api 和 worker 暴露的 prometheus 指标
// 所有方法都允许在 nil 上调用，此时不做任何事
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	jobsSubmitted   prometheus.Counter
	jobsFinished    *prometheus.CounterVec
	jobDuration     prometheus.Histogram
	jobGenerations  prometheus.Histogram
	jobFitness      prometheus.Histogram
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	jobsSubmitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_jobs_submitted_total",
		Help: "Total number of submitted timetable jobs",
	})

	jobsFinished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_jobs_finished_total",
		Help: "Total number of finished timetable jobs by status",
	}, []string{"status"})

	jobDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_job_duration_seconds",
		Help:    "Wall time spent running the genetic algorithm",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
	})

	jobGenerations := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_job_generations",
		Help:    "Number of generations evolved per job",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	jobFitness := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_job_best_fitness",
		Help:    "Best fitness reached per job",
		Buckets: prometheus.LinearBuckets(0.5, 0.05, 11),
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, jobsSubmitted, jobsFinished, jobDuration, jobGenerations, jobFitness, goroutines)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		jobsSubmitted:   jobsSubmitted,
		jobsFinished:    jobsFinished,
		jobDuration:     jobDuration,
		jobGenerations:  jobGenerations,
		jobFitness:      jobFitness,
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

func (m *Metrics) JobSubmitted() {
	if m == nil {
		return
	}
	m.jobsSubmitted.Inc()
}

// ObserveJob 记录一次结束的排课任务，失败的任务没有代数和适应度，只计数
func (m *Metrics) ObserveJob(status string, generations int, fitness float64, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobsFinished.WithLabelValues(status).Inc()
	m.jobDuration.Observe(duration.Seconds())
	if generations > 0 || fitness > 0 {
		m.jobGenerations.Observe(float64(generations))
		m.jobFitness.Observe(fitness)
	}
}
