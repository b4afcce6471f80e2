package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// GardenMetrics tracks the protocol operation counters exported on the
// /metrics endpoint.
type GardenMetrics struct {
	operations *prometheus.CounterVec
	rejected   *prometheus.CounterVec
	markets    prometheus.Gauge
}

var (
	gardenOnce     sync.Once
	gardenRegistry *GardenMetrics
)

// Garden returns the process-wide garden metrics registry.
func Garden() *GardenMetrics {
	gardenOnce.Do(func() {
		gardenRegistry = &GardenMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "garden_operations_total",
				Help: "Count of settled protocol operations by method.",
			}, []string{"method"}),
			rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "garden_operations_rejected_total",
				Help: "Count of rejected protocol operations by method and reason.",
			}, []string{"method", "reason"}),
			markets: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "garden_markets",
				Help: "Number of registered money markets.",
			}),
		}
		prometheus.MustRegister(
			gardenRegistry.operations,
			gardenRegistry.rejected,
			gardenRegistry.markets,
		)
	})
	return gardenRegistry
}

// ObserveOperation records a settled operation for the method.
func (m *GardenMetrics) ObserveOperation(method string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(method).Inc()
}

// ObserveRejection records a rejected operation with its failure reason.
func (m *GardenMetrics) ObserveRejection(method, reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(method, reason).Inc()
}

// SetMarketCount records the current number of registered markets.
func (m *GardenMetrics) SetMarketCount(count int) {
	if m == nil {
		return
	}
	m.markets.Set(float64(count))
}
