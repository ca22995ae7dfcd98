// Package metrics exposes Prometheus instruments for dispatches and the HTTP
// intake.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/reservation-notifier/internal/models"
)

const namespace = "reservation_notifier"

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	dispatches       *prometheus.CounterVec
	channelOutcomes  *prometheus.CounterVec
	dispatchDuration prometheus.Histogram
	httpDuration     *prometheus.HistogramVec
	httpRequests     *prometheus.CounterVec
}

// New registers every instrument on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Reservations dispatched, by overall outcome.",
		}, []string{"outcome"}),
		channelOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_outcomes_total",
			Help:      "Channel attempts, by channel, role and result.",
		}, []string{"channel", "role", "result"}),
		dispatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Wall time of a full dispatch.",
			Buckets:   prometheus.DefBuckets,
		}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method", "status"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"path", "method", "status"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveDispatch records one finished dispatch.
func (m *Metrics) ObserveDispatch(res *models.DispatchResult, elapsed time.Duration) {
	if m == nil || res == nil {
		return
	}
	outcome := "confirmed"
	if !res.OverallSuccess {
		outcome = "unconfirmed"
	}
	m.dispatches.WithLabelValues(outcome).Inc()
	m.dispatchDuration.Observe(elapsed.Seconds())

	for _, o := range res.ChannelOutcomes {
		m.channelOutcomes.WithLabelValues(string(o.Channel), string(o.Role), resultLabel(o.ChannelResult)).Inc()
	}
}

func resultLabel(r models.ChannelResult) string {
	switch {
	case r.Success:
		return "success"
	case r.Error == models.ErrorNotConfigured:
		return "not_configured"
	case r.Kind != "":
		return r.Kind
	default:
		return "failure"
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency labelled by route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			path = rc.RoutePattern()
		}

		status := strconv.Itoa(ww.Status())
		m.httpDuration.WithLabelValues(path, r.Method, status).Observe(time.Since(start).Seconds())
		m.httpRequests.WithLabelValues(path, r.Method, status).Inc()
	})
}
