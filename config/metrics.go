package config

import "fmt"

// MetricsConfig selects and configures the observability sinks.
type MetricsConfig struct {
	// PrometheusEnabled serves /metrics on PrometheusAddr.
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusAddr    string `json:"prometheus_addr"`

	// InfluxEnabled writes tick and event points to InfluxDB. The sink
	// degrades to a no-op when the instance is unreachable at startup.
	InfluxEnabled bool   `json:"influx_enabled"`
	InfluxURL     string `json:"influx_url"`
	InfluxToken   string `json:"influx_token"`
	InfluxOrg     string `json:"influx_org"`
	InfluxBucket  string `json:"influx_bucket"`
}

// SetDefaults applies sane defaults.
func (c *MetricsConfig) SetDefaults() {
	if c.PrometheusAddr == "" {
		c.PrometheusAddr = ":2112"
	}
}

// Validate checks mandatory fields.
func (c MetricsConfig) Validate() error {
	if c.PrometheusEnabled && c.PrometheusAddr == "" {
		return fmt.Errorf("metrics: prometheus_addr is required")
	}
	if c.InfluxEnabled {
		if c.InfluxURL == "" {
			return fmt.Errorf("metrics: influx_url is required")
		}
		if c.InfluxOrg == "" || c.InfluxBucket == "" {
			return fmt.Errorf("metrics: influx_org and influx_bucket are required")
		}
	}
	return nil
}
