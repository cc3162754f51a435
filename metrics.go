package ledgerclient

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one in-process counter.
type MetricID uint16

const (
	// MetricCallIssued counts calls that reached the network.
	MetricCallIssued MetricID = iota
	// MetricCallSucceeded counts calls that returned a usable payload.
	MetricCallSucceeded
	// MetricCallNetworkFailure counts transport-level failures.
	MetricCallNetworkFailure
	// MetricCallServerError counts HTTP error responses.
	MetricCallServerError
	// MetricCallPayloadError counts normalization failures on success
	// responses.
	MetricCallPayloadError
	// MetricCallUnknownError counts failures no classification rule
	// recognized.
	MetricCallUnknownError
	// MetricActionRejectedBusy counts triggers refused because the same
	// action was already in flight.
	MetricActionRejectedBusy
	// MetricLoginSuccess counts logins that populated the session.
	MetricLoginSuccess
	// MetricLoginFailure counts failed logins.
	MetricLoginFailure
	// MetricLogout counts explicit logouts.
	MetricLogout
	// MetricCallLatency is the call latency histogram.
	MetricCallLatency
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

// Metrics is the in-process counter registry. All methods are safe for
// concurrent use; a nil or disabled registry is inert.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
	latency  metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and the call
// latency histogram buckets.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
	Latency  []uint64
}

// NewMetrics builds a registry; a disabled one records nothing.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
	}
}

// Enabled reports whether the registry records anything.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records one call latency.
func (m *Metrics) Observe(d time.Duration) {
	if m == nil || !m.enabled {
		return
	}
	atomic.AddUint64(&m.latency.buckets[bucketIndex(d)], 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and histogram bucket.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, metricIDCount),
		Latency:  make([]uint64, histBucketCount),
	}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	for i := range snap.Latency {
		snap.Latency[i] = atomic.LoadUint64(&m.latency.buckets[i])
	}
	return snap
}

// bucketIndex maps a latency to exponential buckets starting at 8ms:
// <8ms, <16ms, <32ms, ... with everything past ~1s in the last bucket.
func bucketIndex(d time.Duration) int {
	bound := 8 * time.Millisecond
	for i := 0; i < histBucketCount-1; i++ {
		if d < bound {
			return i
		}
		bound *= 2
	}
	return histBucketCount - 1
}
