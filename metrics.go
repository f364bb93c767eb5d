package journal

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/relayq/journal/internal/metrics"
)

// MetricsCollector is the interface a caller implements, or obtains from
// NewMetricsCollector, to observe journal operation counts and latency.
// A nil MetricsCollector in Options disables metrics.
type MetricsCollector interface {
	RecordAppend(op string, recordLen int, took time.Duration)
	RecordAppendError()
	RecordRoll()
	RecordRollError()
	RecordReplay(recordCount int)
	RecordReadBehindFill(delivered bool)
	SetSize(size int64)
}

// NewMetricsCollector returns a MetricsCollector that implements
// prometheus.Collector, ready to be handed to prometheus.MustRegister.
// journalName becomes the "journal" label on every metric it emits.
func NewMetricsCollector(journalName string) MetricsCollector {
	return metrics.NewCollector(journalName)
}

// AsPrometheusCollector exposes m as a prometheus.Collector when it was
// constructed by NewMetricsCollector; it returns nil for any other
// implementation, including a caller-supplied MetricsCollector or nil.
func AsPrometheusCollector(m MetricsCollector) prometheus.Collector {
	if c, ok := m.(*metrics.Collector); ok {
		return c
	}
	return nil
}
