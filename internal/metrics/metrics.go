// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// ResultSuccess labels a client that was constructed.
	ResultSuccess = "success"
	// ResultError labels a constructor that returned an error.
	ResultError = "error"
)

var (
	// ClientsCreated counts search client constructions.
	// Labels: flavor (client/typed), result (success/error)
	//
	// Example:
	//	metrics.ClientsCreated.WithLabelValues("typed", metrics.ResultSuccess).Inc()
	ClientsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stac_search_clients_created_total",
			Help: "Total number of search clients constructed",
		},
		[]string{"flavor", "result"},
	)

	// DirectResponseEnabled is 1 while request processing is bypassed for all routes.
	DirectResponseEnabled = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stac_direct_response_enabled",
			Help: "Whether direct response mode is active (1) or not (0)",
		},
	)
)

// RecordClient records the outcome of one client construction.
func RecordClient(flavor string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	ClientsCreated.WithLabelValues(flavor, result).Inc()
}

// SetDirectResponse publishes the direct response mode.
func SetDirectResponse(enabled bool) {
	if enabled {
		DirectResponseEnabled.Set(1)
		return
	}
	DirectResponseEnabled.Set(0)
}
