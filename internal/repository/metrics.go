package repository

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/starford/timelog/internal/apperr"
)

// Cache lookup results.
const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultStale = "stale"
)

type metrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// newMetrics builds the collectors and registers them on reg. A nil reg
// leaves them unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timelog",
			Name:      "cache_requests_total",
			Help:      "Repository reads by operation and cache result.",
		}, []string{"op", "result"}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timelog",
			Name:      "store_errors_total",
			Help:      "Failed record store calls by operation.",
		}, []string{"op"}),
		durations: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "timelog",
			Name:      "store_duration_seconds",
			Help:      "Record store call latency by operation.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"op"}),
	}
}

func (m *metrics) cache(op, result string) {
	m.requests.WithLabelValues(op, result).Inc()
}

// observe records one store call. A missing record is not a store error.
func (m *metrics) observe(op string, start, end time.Time, err error) {
	m.durations.WithLabelValues(op).Observe(end.Sub(start).Seconds())
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		m.errors.WithLabelValues(op).Inc()
	}
}
