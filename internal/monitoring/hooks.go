package monitoring

import (
	"fmt"
	"time"
)

// Metric names emitted by MetricsObservabilityHook.
const (
	MetricProcessStarted   = "bier.process.started"
	MetricProcessSucceeded = "bier.process.succeeded"
	MetricProcessFailed    = "bier.process.failed"
	MetricProcessDuration  = "bier.process.duration"
	MetricProcessBytes     = "bier.process.bytes"
	MetricBytesTotal       = "bier.bytes.total"
	MetricErrors           = "bier.errors"
	MetricSchemaBuilt      = "bier.schema.built"
	MetricSchemaDuration   = "bier.schema.duration"
)

// ObservabilityHook receives codec and schema events.
type ObservabilityHook interface {
	// Called before an encode or decode starts
	OnProcessStart(operation string, metadata map[string]any)

	// Called after an encode or decode finishes (success or failure)
	OnProcessComplete(operation string, duration time.Duration, err error, metadata map[string]any)

	// Called when errors occur
	OnError(operation string, err error, metadata map[string]any)

	// Called once per record type when its schema tree is built
	OnSchemaBuild(record string, fingerprint string, duration time.Duration)
}

// NoOpObservabilityHook ignores every event.
type NoOpObservabilityHook struct{}

func (n *NoOpObservabilityHook) OnProcessStart(operation string, metadata map[string]any) {}
func (n *NoOpObservabilityHook) OnProcessComplete(operation string, duration time.Duration, err error, metadata map[string]any) {
}
func (n *NoOpObservabilityHook) OnError(operation string, err error, metadata map[string]any) {}
func (n *NoOpObservabilityHook) OnSchemaBuild(record string, fingerprint string, duration time.Duration) {
}

// LoggingObservabilityHook writes every event to a Logger.
type LoggingObservabilityHook struct {
	logger Logger
}

// NewLoggingObservabilityHook falls back to a StandardLogger when logger is nil.
func NewLoggingObservabilityHook(logger Logger) *LoggingObservabilityHook {
	if logger == nil {
		logger = &StandardLogger{}
	}
	return &LoggingObservabilityHook{logger: logger}
}

func (l *LoggingObservabilityHook) OnProcessStart(operation string, metadata map[string]any) {
	l.logger.Debug("Operation started: %s, metadata: %v", operation, metadata)
}

func (l *LoggingObservabilityHook) OnProcessComplete(operation string, duration time.Duration, err error, metadata map[string]any) {
	if err != nil {
		l.logger.Error("Operation failed: %s, duration: %v, error: %v, metadata: %v", operation, duration, err, metadata)
		return
	}
	l.logger.Info("Operation completed: %s, duration: %v, metadata: %v", operation, duration, metadata)
}

func (l *LoggingObservabilityHook) OnError(operation string, err error, metadata map[string]any) {
	l.logger.Error("Operation error: %s, error: %v, metadata: %v", operation, err, metadata)
}

func (l *LoggingObservabilityHook) OnSchemaBuild(record string, fingerprint string, duration time.Duration) {
	l.logger.Info("Schema built: %s, fingerprint: %s, duration: %v", record, fingerprint, duration)
}

// MetricsObservabilityHook turns events into counters and timings.
type MetricsObservabilityHook struct {
	collector MetricsCollector
}

func NewMetricsObservabilityHook(collector MetricsCollector) *MetricsObservabilityHook {
	if collector == nil {
		collector = &NoOpMetricsCollector{}
	}
	return &MetricsObservabilityHook{collector: collector}
}

func operationTags(operation string, metadata map[string]any) map[string]string {
	tags := map[string]string{"operation": operation}
	if record, ok := metadata["record"].(string); ok {
		tags["record"] = record
	}
	return tags
}

func (m *MetricsObservabilityHook) OnProcessStart(operation string, metadata map[string]any) {
	m.collector.IncrementCounter(MetricProcessStarted, operationTags(operation, metadata))
}

func (m *MetricsObservabilityHook) OnProcessComplete(operation string, duration time.Duration, err error, metadata map[string]any) {
	tags := operationTags(operation, metadata)
	if err != nil {
		tags["status"] = "error"
		m.collector.IncrementCounter(MetricProcessFailed, tags)
	} else {
		tags["status"] = "success"
		m.collector.IncrementCounter(MetricProcessSucceeded, tags)
	}
	m.collector.RecordTiming(MetricProcessDuration, duration, tags)

	if n, ok := metadata["bytes"].(int); ok && err == nil {
		m.collector.RecordValue(MetricProcessBytes, float64(n), operationTags(operation, metadata))
		m.collector.IncrementCounterBy(MetricBytesTotal, int64(n), map[string]string{"operation": operation})
	}
}

func (m *MetricsObservabilityHook) OnError(operation string, err error, metadata map[string]any) {
	tags := operationTags(operation, metadata)
	tags["error"] = fmt.Sprintf("%T", err)
	m.collector.IncrementCounter(MetricErrors, tags)
}

func (m *MetricsObservabilityHook) OnSchemaBuild(record string, fingerprint string, duration time.Duration) {
	tags := map[string]string{"record": record}
	m.collector.IncrementCounter(MetricSchemaBuilt, tags)
	m.collector.RecordTiming(MetricSchemaDuration, duration, tags)
}

// CompositeObservabilityHook fans every event out to several hooks.
type CompositeObservabilityHook struct {
	hooks []ObservabilityHook
}

func NewCompositeObservabilityHook(hooks ...ObservabilityHook) *CompositeObservabilityHook {
	return &CompositeObservabilityHook{hooks: hooks}
}

func (c *CompositeObservabilityHook) OnProcessStart(operation string, metadata map[string]any) {
	for _, hook := range c.hooks {
		hook.OnProcessStart(operation, metadata)
	}
}

func (c *CompositeObservabilityHook) OnProcessComplete(operation string, duration time.Duration, err error, metadata map[string]any) {
	for _, hook := range c.hooks {
		hook.OnProcessComplete(operation, duration, err, metadata)
	}
}

func (c *CompositeObservabilityHook) OnError(operation string, err error, metadata map[string]any) {
	for _, hook := range c.hooks {
		hook.OnError(operation, err, metadata)
	}
}

func (c *CompositeObservabilityHook) OnSchemaBuild(record string, fingerprint string, duration time.Duration) {
	for _, hook := range c.hooks {
		hook.OnSchemaBuild(record, fingerprint, duration)
	}
}
