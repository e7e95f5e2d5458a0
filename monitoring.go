package bier

import "github.com/hengadev/bier/internal/monitoring"

type (
	// ObservabilityHook receives encode, decode and schema build events.
	ObservabilityHook = monitoring.ObservabilityHook
	// MetricsCollector is the sink behind the metrics hook.
	MetricsCollector = monitoring.MetricsCollector
	// Logger is the printf style logger behind the logging hook.
	Logger = monitoring.Logger

	NoOpObservabilityHook      = monitoring.NoOpObservabilityHook
	NoOpMetricsCollector       = monitoring.NoOpMetricsCollector
	InMemoryMetricsCollector   = monitoring.InMemoryMetricsCollector
	LoggingObservabilityHook   = monitoring.LoggingObservabilityHook
	MetricsObservabilityHook   = monitoring.MetricsObservabilityHook
	CompositeObservabilityHook = monitoring.CompositeObservabilityHook
	StandardLogger             = monitoring.StandardLogger
	SlogLogger                 = monitoring.SlogLogger
)

var (
	NewLoggingObservabilityHook   = monitoring.NewLoggingObservabilityHook
	NewMetricsObservabilityHook   = monitoring.NewMetricsObservabilityHook
	NewCompositeObservabilityHook = monitoring.NewCompositeObservabilityHook
	NewInMemoryMetricsCollector   = monitoring.NewInMemoryMetricsCollector
	NewSlogLogger                 = monitoring.NewSlogLogger
)
