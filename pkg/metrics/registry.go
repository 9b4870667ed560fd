// Package metrics provides Prometheus metrics for the probe client.
//
// All metrics are optional - if the registry is not initialized, constructors
// return no-op implementations with zero overhead, so the client runs the same
// with or without metrics collection enabled.
//
// Usage:
//
//	// Initialize the global registry (typically from the CLI when metrics.enabled is set)
//	metrics.InitRegistry()
//
//	// Create metrics for the client
//	m := metrics.NewClientMetrics()
//	c, err := client.Dial(ctx, cfg, client.WithMetrics(m))
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// registry is written once by InitRegistry and read afterwards.
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global Prometheus registry.
//
// It must be called before creating metrics instances that should be
// collected. Subsequent calls are ignored.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
	})
}

// GetRegistry returns the global Prometheus registry, or nil if metrics are disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled returns true if InitRegistry() has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}
