// Package metrics holds the Prometheus collectors of the screening pipeline.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cv_screener_requests_total",
			Help: "Orchestrated requests by operation, provenance and provider error kind",
		},
		[]string{"operation", "provenance", "error_kind"},
	)
	ProviderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cv_screener_provider_duration_seconds",
			Help:    "Duration of provider calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 15, 30},
		},
		[]string{"provider", "operation"},
	)
	ScreeningScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cv_screener_screening_score",
			Help:    "Distribution of resume screening scores",
			Buckets: []float64{0, 20, 40, 60, 80, 100},
		},
	)
	BatchInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cv_screener_batch_in_flight",
			Help: "Screenings of batches currently running",
		},
	)
)

// Register adds every collector to reg. Collectors that are already
// registered are skipped.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{RequestsTotal, ProviderDuration, ScreeningScore, BatchInFlight}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveRequest records the outcome of one orchestrated request.
func ObserveRequest(operation, provenance, errorKind string) {
	RequestsTotal.WithLabelValues(operation, provenance, errorKind).Inc()
}

// ObserveProvider records how long a provider call took.
func ObserveProvider(provider, operation string, d time.Duration) {
	ProviderDuration.WithLabelValues(provider, operation).Observe(d.Seconds())
}
