package monitoring

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector is the sink behind MetricsObservabilityHook.
type MetricsCollector interface {
	IncrementCounter(name string, tags map[string]string)
	IncrementCounterBy(name string, value int64, tags map[string]string)
	RecordTiming(name string, duration time.Duration, tags map[string]string)
	RecordValue(name string, value float64, tags map[string]string)
}

// NoOpMetricsCollector drops every measurement.
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) IncrementCounter(string, map[string]string)            {}
func (NoOpMetricsCollector) IncrementCounterBy(string, int64, map[string]string)   {}
func (NoOpMetricsCollector) RecordTiming(string, time.Duration, map[string]string) {}
func (NoOpMetricsCollector) RecordValue(string, float64, map[string]string)        {}

// series is everything recorded under one name and tag set.
type series struct {
	count   atomic.Int64
	mu      sync.Mutex
	timings []time.Duration
	values  []float64
}

// InMemoryMetricsCollector keeps every series in memory. Mostly useful in
// tests and the demos.
type InMemoryMetricsCollector struct {
	mu     sync.RWMutex
	series map[string]*series
}

func NewInMemoryMetricsCollector() *InMemoryMetricsCollector {
	return &InMemoryMetricsCollector{series: make(map[string]*series)}
}

func (m *InMemoryMetricsCollector) get(name string, tags map[string]string) *series {
	key := metricKey(name, tags)
	m.mu.RLock()
	s, ok := m.series[key]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok = m.series[key]; !ok {
		s = &series{}
		m.series[key] = s
	}
	return s
}

func (m *InMemoryMetricsCollector) find(name string, tags map[string]string) *series {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.series[metricKey(name, tags)]
}

func (m *InMemoryMetricsCollector) IncrementCounter(name string, tags map[string]string) {
	m.get(name, tags).count.Add(1)
}

func (m *InMemoryMetricsCollector) IncrementCounterBy(name string, value int64, tags map[string]string) {
	m.get(name, tags).count.Add(value)
}

func (m *InMemoryMetricsCollector) RecordTiming(name string, duration time.Duration, tags map[string]string) {
	s := m.get(name, tags)
	s.mu.Lock()
	s.timings = append(s.timings, duration)
	s.mu.Unlock()
}

func (m *InMemoryMetricsCollector) RecordValue(name string, value float64, tags map[string]string) {
	s := m.get(name, tags)
	s.mu.Lock()
	s.values = append(s.values, value)
	s.mu.Unlock()
}

// GetCounter returns the current value of a counter, 0 if it was never set.
func (m *InMemoryMetricsCollector) GetCounter(name string, tags map[string]string) int64 {
	if s := m.find(name, tags); s != nil {
		return s.count.Load()
	}
	return 0
}

func (m *InMemoryMetricsCollector) GetTimings(name string, tags map[string]string) []time.Duration {
	s := m.find(name, tags)
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.timings...)
}

func (m *InMemoryMetricsCollector) GetValues(name string, tags map[string]string) []float64 {
	s := m.find(name, tags)
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.values...)
}

// CounterTotal sums a counter across every tag combination.
func (m *InMemoryMetricsCollector) CounterTotal(name string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int64
	for key, s := range m.series {
		if key == name || strings.HasPrefix(key, name+",") {
			total += s.count.Load()
		}
	}
	return total
}

func (m *InMemoryMetricsCollector) Reset() {
	m.mu.Lock()
	m.series = make(map[string]*series)
	m.mu.Unlock()
}

// metricKey renders name plus tags sorted by key, e.g. "a.b,op=x,status=ok".
func metricKey(name string, tags map[string]string) string {
	if len(tags) == 0 {
		return name
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteByte(',')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(tags[k])
	}
	return b.String()
}
