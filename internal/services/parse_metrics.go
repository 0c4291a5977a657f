package services

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ParseMetrics tracks parser attempt/selection counts. Counters are
// mirrored into Prometheus when a registerer is supplied; the in-memory
// snapshot stays available either way. All methods are safe on a nil
// receiver so callers can leave metrics unconfigured.
type ParseMetrics struct {
	mu         sync.Mutex
	attempts   map[string]int64
	selections map[string]int64
	fallbacks  int64

	promAttempts   *prometheus.CounterVec
	promSelections *prometheus.CounterVec
	promFallbacks  prometheus.Counter
	promDuration   prometheus.Histogram
}

// ParseMetricsSnapshot is a point-in-time copy of the counters.
type ParseMetricsSnapshot struct {
	Attempts   map[string]int64 `json:"attempts"`
	Selections map[string]int64 `json:"selections"`
	Fallbacks  int64            `json:"fallbacks"`
}

// NewParseMetrics creates the metrics collector. A nil registerer keeps
// the collector in-memory only.
func NewParseMetrics(reg prometheus.Registerer) *ParseMetrics {
	m := &ParseMetrics{
		attempts:   make(map[string]int64),
		selections: make(map[string]int64),
	}

	if reg != nil {
		m.promAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timeline_parse_attempts_total",
			Help: "Parse attempts per parser plugin.",
		}, []string{"parser"})
		m.promSelections = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timeline_parse_selected_total",
			Help: "Winning parses per parser plugin.",
		}, []string{"parser"})
		m.promFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timeline_parse_fallbacks_total",
			Help: "Parses resolved by the heuristic fallback.",
		})
		m.promDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "timeline_parse_duration_seconds",
			Help:    "End-to-end parse duration.",
			Buckets: prometheus.DefBuckets,
		})
		reg.MustRegister(m.promAttempts, m.promSelections, m.promFallbacks, m.promDuration)
	}
	return m
}

// RecordAttempt counts one TryParse invocation for the named parser.
func (m *ParseMetrics) RecordAttempt(parser string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.attempts[parser]++
	m.mu.Unlock()

	if m.promAttempts != nil {
		m.promAttempts.WithLabelValues(parser).Inc()
	}
}

// RecordSelection counts one winning parse and its duration.
func (m *ParseMetrics) RecordSelection(parser string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.selections[parser]++
	if parser == "HeuristicTimeParser" {
		m.fallbacks++
	}
	m.mu.Unlock()

	if m.promSelections != nil {
		m.promSelections.WithLabelValues(parser).Inc()
	}
	if parser == "HeuristicTimeParser" && m.promFallbacks != nil {
		m.promFallbacks.Inc()
	}
	if m.promDuration != nil {
		m.promDuration.Observe(elapsed.Seconds())
	}
}

// Snapshot returns a copy of the in-memory counters.
func (m *ParseMetrics) Snapshot() ParseMetricsSnapshot {
	snapshot := ParseMetricsSnapshot{
		Attempts:   make(map[string]int64),
		Selections: make(map[string]int64),
	}
	if m == nil {
		return snapshot
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for parser, count := range m.attempts {
		snapshot.Attempts[parser] = count
	}
	for parser, count := range m.selections {
		snapshot.Selections[parser] = count
	}
	snapshot.Fallbacks = m.fallbacks
	return snapshot
}
