// Package metrics holds the Prometheus instruments for polling and API traffic.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bagdesk"

// Metrics holds all prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	PollsTotal    *prometheus.CounterVec
	PollDuration  *prometheus.HistogramVec
	PollRecords   *prometheus.GaugeVec
	RequestsTotal *prometheus.CounterVec
	RequestTime   *prometheus.HistogramVec
}

// New registers the instruments on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		PollsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Poll ticks by poller and outcome",
		}, []string{"poller", "outcome"}),
		PollDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Time spent in one poll fetch",
			Buckets:   prometheus.DefBuckets,
		}, []string{"poller"}),
		PollRecords: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "poll_records",
			Help:      "Records returned by the latest successful poll",
		}, []string{"poller"}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "API requests by route and status code",
		}, []string{"route", "code"}),
		RequestTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// ObserveRequest records one API exchange. A zero status means the request
// failed before a response arrived.
func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.RequestsTotal.WithLabelValues(route, code).Inc()
	m.RequestTime.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObservePoll records one poll tick.
func (m *Metrics) ObservePoll(poller string, records int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.PollDuration.WithLabelValues(poller).Observe(elapsed.Seconds())
	if err != nil {
		m.PollsTotal.WithLabelValues(poller, "failure").Inc()
		m.PollRecords.WithLabelValues(poller).Set(0)
		return
	}
	m.PollsTotal.WithLabelValues(poller, "success").Inc()
	m.PollRecords.WithLabelValues(poller).Set(float64(records))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
