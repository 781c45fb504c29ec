package smsverify

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by smsverify APIs.
type MetricID uint16

const (
	// MetricSendSuccess is an exported constant or variable used by the verification engine.
	MetricSendSuccess MetricID = iota
	// MetricSendRateLimited is an exported constant or variable used by the verification engine.
	MetricSendRateLimited
	// MetricSendDispatchFailed is an exported constant or variable used by the verification engine.
	MetricSendDispatchFailed
	// MetricSendStoreDegraded is an exported constant or variable used by the verification engine.
	MetricSendStoreDegraded
	// MetricLimiterFailOpen is an exported constant or variable used by the verification engine.
	MetricLimiterFailOpen
	// MetricVerifySuccess is an exported constant or variable used by the verification engine.
	MetricVerifySuccess
	// MetricVerifyMismatch is an exported constant or variable used by the verification engine.
	MetricVerifyMismatch
	// MetricVerifyExpired is an exported constant or variable used by the verification engine.
	MetricVerifyExpired
	// MetricVerifyNotFound is an exported constant or variable used by the verification engine.
	MetricVerifyNotFound
	// MetricVerifyStoreUnavailable is an exported constant or variable used by the verification engine.
	MetricVerifyStoreUnavailable
	// MetricCodesReaped is an exported constant or variable used by the verification engine.
	MetricCodesReaped
	// MetricDispatchLatency is an exported constant or variable used by the verification engine.
	MetricDispatchLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by smsverify APIs.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// NewMetrics describes the newmetrics operation and its observable behavior.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// MetricsSnapshot defines a public type used by smsverify APIs.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// Enabled describes the enabled operation and its observable behavior.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc describes the inc operation and its observable behavior.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Add describes the add operation and its observable behavior.
func (m *Metrics) Add(id MetricID, delta uint64) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, delta)
}

// Observe describes the observe operation and its observable behavior.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricDispatchLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value describes the value operation and its observable behavior.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot describes the snapshot operation and its observable behavior.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricDispatchLatency].buckets[i])
		}
		s.Histograms[MetricDispatchLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
