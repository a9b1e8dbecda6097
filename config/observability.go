package config

import "strings"

const defaultObservabilityName = "sbx-training-portal"

// ObservabilityConfig groups configuration that controls tracing export.
type ObservabilityConfig struct {
	Tracing TracingConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Tracing.Sanitize()
}

// TracingConfig controls OTLP trace export.
type TracingConfig struct {
	Enabled     bool   `env:"OTEL_TRACING_ENABLED"        envDefault:"false"`
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure    bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"false"`
	ServiceName string `env:"OTEL_SERVICE_NAME"           envDefault:"sbx-training-portal"`
}

// Sanitize normalises derived fields and enforces safe defaults.
func (c *TracingConfig) Sanitize() {
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	if c.Endpoint == "" {
		c.Enabled = false
	}
	if c.ServiceName = strings.TrimSpace(c.ServiceName); c.ServiceName == "" {
		c.ServiceName = defaultObservabilityName
	}
}

// IsEnabled returns true when trace export is active after sanitisation.
func (c *TracingConfig) IsEnabled() bool {
	return c.Enabled && c.Endpoint != ""
}
