package httpapi

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// controllerMetrics tracks request volume, error volume, HTTP request
// durations, and in-flight jobs, modeled on PricingController's
// NewControllerMetrics.
type controllerMetrics struct {
	requestsTotal   *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	jobsInFlight    prometheus.Gauge
}

// metricsOnce guards registration against prometheus.DefaultRegisterer:
// only one process-wide Controller is expected in production, but
// tests construct several; promauto would otherwise panic on the
// second registration of the same collector name.
var (
	metricsOnce     sync.Once
	metricsInstance *controllerMetrics
)

func newControllerMetrics() *controllerMetrics {
	metricsOnce.Do(func() {
		metricsInstance = &controllerMetrics{
			requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "analyzer_http_requests_total",
				Help: "Total number of HTTP requests by route and status",
			}, []string{"route", "status"}),
			errorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "analyzer_http_errors_total",
				Help: "Total number of HTTP error responses by route",
			}, []string{"route"}),
			requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name: "analyzer_http_request_duration_seconds",
				Help: "HTTP request duration by route",
			}, []string{"route"}),
			jobsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "analyzer_jobs_in_flight",
				Help: "Number of jobs currently queued or running",
			}),
		}
	})
	return metricsInstance
}
