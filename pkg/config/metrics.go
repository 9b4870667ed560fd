package config

import (
	"github.com/marmos91/nfs4probe/pkg/metrics"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server exposes /metrics (nil if disabled or metrics.listen is empty)
	Server *metrics.Server

	// ClientMetrics is never nil; it is a no-op when metrics are disabled
	ClientMetrics metrics.ClientMetrics
}

// InitializeMetrics creates the metrics components described by cfg.
//
// When metrics are enabled the global Prometheus registry is initialized
// before the collectors are created. When disabled, no-op collectors are
// returned and nothing is registered.
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{
			ClientMetrics: metrics.NewNoopClientMetrics(),
		}
	}

	metrics.InitRegistry()

	result := &MetricsResult{
		ClientMetrics: metrics.NewClientMetrics(),
	}
	if cfg.Metrics.Listen != "" {
		result.Server = metrics.NewServer(cfg.Metrics.Listen)
	}
	return result
}
