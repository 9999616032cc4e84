package config

type Telemetry struct {
	file fileValues
}

var _ TelemetryConfig = Telemetry{}

func (t Telemetry) GetMetricsEnabled() bool {
	return t.file.getBool("METRICS_ENABLED", false)
}

func (t Telemetry) GetTracingEnabled() bool {
	return t.file.getBool("TRACING_ENABLED", false)
}
