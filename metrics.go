package authflow

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint16

const (
	// MetricCallbackSuccess counts external callbacks that ended in a logged-in
	// session.
	MetricCallbackSuccess MetricID = iota
	// MetricCallbackRejected counts callbacks rejected before login.
	MetricCallbackRejected
	// MetricRegistrationRedirect counts callbacks routed to registration.
	MetricRegistrationRedirect
	// MetricMergeSuccess counts completed account merges.
	MetricMergeSuccess
	// MetricMergeFailure counts rejected account merges.
	MetricMergeFailure
	// MetricRememberMeIssued counts remember-me tokens written.
	MetricRememberMeIssued
	// MetricRememberMeResolved counts logins established from a remember-me
	// token.
	MetricRememberMeResolved
	// MetricRememberMeRejected counts remember-me tokens cleared as invalid.
	MetricRememberMeRejected
	// MetricSessionResumed counts healthy session resumes.
	MetricSessionResumed
	// MetricCredentialsRebuilt counts full credential rebuilds.
	MetricCredentialsRebuilt
	// MetricUpdateFlagSet counts update flags written.
	MetricUpdateFlagSet
	// MetricUpdateFlagCleared counts update flags consumed.
	MetricUpdateFlagCleared
	metricIDCount
)

const cacheLineSize = 64

// paddedCounter keeps adjacent counters on separate cache lines.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds the engine's lock-free counters.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc increments one counter. Safe for concurrent use; a no-op when
// metrics are disabled.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter. Counters are read individually, so the
// snapshot is not a single atomic view across IDs.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, int(metricIDCount)),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
