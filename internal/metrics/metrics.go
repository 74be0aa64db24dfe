// package metrics records backend calls, store publications, and served requests with Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "studyx"

// Recorder holds the studyx collectors. A nil *Recorder is valid and records nothing.
type Recorder struct {
	backendDuration *prom.HistogramVec
	backendResults  *prom.CounterVec
	publishes       *prom.CounterVec
	subscribers     *prom.GaugeVec
	fetchBatch      prom.Histogram
	served          *prom.CounterVec
	servedDuration  *prom.HistogramVec
}

// NewRecorder constructs the collectors and registers them with reg, creating a registry when reg is nil.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	r := &Recorder{
		backendDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Duration of task and progress endpoint calls",
			Buckets:   prom.DefBuckets,
		}, []string{"endpoint", "method"}),
		backendResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Backend calls by endpoint, method, and outcome",
		}, []string{"endpoint", "method", "result"}),
		publishes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "publishes_total",
			Help:      "Snapshots published by the task store per stream",
		}, []string{"stream"}),
		subscribers: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "subscribers",
			Help:      "Active subscriptions per stream",
		}, []string{"stream"}),
		fetchBatch: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "fetch_batch_size",
			Help:      "Number of tasks requested per batch fetch",
			Buckets:   prom.ExponentialBuckets(1, 2, 8),
		}),
		served: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "Requests handled by the development backend",
		}, []string{"path", "method", "code"}),
		servedDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "request_duration_seconds",
			Help:      "Handling time of development backend requests",
			Buckets:   prom.DefBuckets,
		}, []string{"path", "method"}),
	}

	reg.MustRegister(r.backendDuration, r.backendResults, r.publishes, r.subscribers, r.fetchBatch, r.served, r.servedDuration)
	return r
}

// ObserveBackendCall records one backend call.
func (r *Recorder) ObserveBackendCall(endpoint, method string, d time.Duration, err error) {
	if r == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failed"
	}
	r.backendDuration.WithLabelValues(endpoint, method).Observe(d.Seconds())
	r.backendResults.WithLabelValues(endpoint, method, result).Inc()
}

func (r *Recorder) IncPublish(stream string) {
	if r == nil {
		return
	}
	r.publishes.WithLabelValues(stream).Inc()
}

func (r *Recorder) SetSubscribers(stream string, n int) {
	if r == nil {
		return
	}
	r.subscribers.WithLabelValues(stream).Set(float64(n))
}

func (r *Recorder) ObserveFetchBatch(n int) {
	if r == nil {
		return
	}
	r.fetchBatch.Observe(float64(n))
}

// ObserveServed records one request handled by the development backend.
func (r *Recorder) ObserveServed(path, method string, code int, d time.Duration) {
	if r == nil {
		return
	}
	r.served.WithLabelValues(path, method, strconv.Itoa(code)).Inc()
	r.servedDuration.WithLabelValues(path, method).Observe(d.Seconds())
}

// HTTPHandler returns an [http.Handler] that serves the metrics in reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
