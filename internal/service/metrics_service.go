package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "tutor_booking"

// MetricsService owns the Prometheus collectors of the booking API. A nil
// *MetricsService is valid and records nothing.
type MetricsService struct {
	registry     *prometheus.Registry
	handler      http.Handler
	httpDuration *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
	cacheLatency prometheus.Histogram
	searches     *prometheus.CounterVec
	searchSlots  prometheus.Histogram
	reservations *prometheus.CounterVec
}

// NewMetricsService builds a private registry with the booking collectors and
// the standard process and Go runtime collectors.
func NewMetricsService() *MetricsService {
	m := &MetricsService{
		registry: prometheus.NewRegistry(),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "search_cache_lookups_total",
			Help:      "Search cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "search_cache_latency_seconds",
			Help:      "Search cache read and write latency.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5},
		}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "availability_searches_total",
			Help:      "Availability searches by outcome (ok, rejected, error).",
		}, []string{"outcome"}),
		searchSlots: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "availability_search_slots",
			Help:      "Aggregated slots returned per successful search.",
			Buckets:   []float64{0, 1, 2, 4, 6, 8, 12},
		}),
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "slot_reservations_total",
			Help:      "Reservation attempts by outcome code.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		m.httpDuration,
		m.cacheLookups,
		m.cacheLatency,
		m.searches,
		m.searchSlots,
		m.reservations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordCacheLookup counts a search cache read. err is the backend failure,
// if any; a miss is not an error.
func (m *MetricsService) RecordCacheLookup(hit bool, err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case hit:
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
	m.cacheLatency.Observe(duration.Seconds())
}

// ObserveCacheWrite records the latency of a search cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
}

// RecordSearch counts a finished search and the number of slots it produced.
func (m *MetricsService) RecordSearch(outcome string, slots int) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.searchSlots.Observe(float64(slots))
	}
}

// RecordReservation counts a reservation attempt by outcome code.
func (m *MetricsService) RecordReservation(outcome string) {
	if m == nil {
		return
	}
	m.reservations.WithLabelValues(outcome).Inc()
}
