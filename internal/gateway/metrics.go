package gateway

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vendo_gateway_requests_total",
		Help: "Number of generative model calls by method and result.",
	}, []string{"method", "result"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vendo_gateway_request_duration_seconds",
		Help:    "Latency of generative model calls.",
		Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 180},
	}, []string{"method"})
)

func observe(method string, start time.Time, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrCredential):
		result = "credential_error"
	default:
		result = "error"
	}
	requestsTotal.WithLabelValues(method, result).Inc()
	requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
