package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	WatchesRegistered = prometheus.NewCounter(prometheus.CounterOpts{Name: "jobwatch_watches_registered_total", Help: "Total job watches registered"})
	RateLimitRejects  = prometheus.NewCounter(prometheus.CounterOpts{Name: "jobwatch_rate_limit_rejects_total", Help: "API requests rejected by rate limiter"})
	DescribeCalls     = prometheus.NewCounter(prometheus.CounterOpts{Name: "jobwatch_describe_calls_total", Help: "Describe calls made against the ML platform"})
	DescribeErrors    = prometheus.NewCounter(prometheus.CounterOpts{Name: "jobwatch_describe_errors_total", Help: "Describe calls that returned an error"})
	JobsCompleted     = prometheus.NewCounter(prometheus.CounterOpts{Name: "jobwatch_jobs_completed_total", Help: "Watched jobs that reached Completed"})
	JobsFailed        = prometheus.NewCounter(prometheus.CounterOpts{Name: "jobwatch_jobs_failed_total", Help: "Watched jobs that reached Failed"})
	JobsStopped       = prometheus.NewCounter(prometheus.CounterOpts{Name: "jobwatch_jobs_stopped_total", Help: "Watched jobs that reached Stopped"})
	WatchesLost       = prometheus.NewCounter(prometheus.CounterOpts{Name: "jobwatch_watches_lost_total", Help: "Watches abandoned after repeated describe failures"})
	QueueDepthGauge   = prometheus.NewGauge(prometheus.GaugeOpts{Name: "jobwatch_queue_depth", Help: "Watches waiting for their next poll"})
	InFlightGauge     = prometheus.NewGauge(prometheus.GaugeOpts{Name: "jobwatch_inflight", Help: "Watches currently leased by a poller"})
)

// Handler exposes /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			WatchesRegistered,
			RateLimitRejects,
			DescribeCalls,
			DescribeErrors,
			JobsCompleted,
			JobsFailed,
			JobsStopped,
			WatchesLost,
			QueueDepthGauge,
			InFlightGauge,
		)
	})
	return promhttp.Handler()
}
