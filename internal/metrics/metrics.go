// Package metrics wires the journal's operation counters into Prometheus.
//
// Collector implements prometheus.Collector directly, so it can be handed
// to prometheus.MustRegister without any adapter:
//
//	collector := metrics.NewCollector("orders")
//	prometheus.MustRegister(collector)
//	collector.RecordAppend("Add", recordLen, took)
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector tracks journal operation counts, byte throughput, and record
// latency, and exposes them as Prometheus metrics.
type Collector struct {
	journalName string

	appends    *prometheus.CounterVec
	appendErrs prometheus.Counter
	bytesOut   prometheus.Counter
	rolls      prometheus.Counter
	rollErrs   prometheus.Counter
	replays    prometheus.Counter
	replayRecs prometheus.Counter
	rbFills    prometheus.Counter
	rbDelivers prometheus.Counter
	size       prometheus.Gauge
	appendDur  prometheus.Histogram
}

// NewCollector creates a metrics collector for a single named journal.
// journalName becomes the "journal" label on every emitted metric so
// multiple journals in one process can share a registry.
func NewCollector(journalName string) *Collector {
	constLabels := prometheus.Labels{"journal": journalName}

	return &Collector{
		journalName: journalName,
		appends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "journal",
			Name:        "records_appended_total",
			Help:        "Number of records appended, labeled by opcode.",
			ConstLabels: constLabels,
		}, []string{"op"}),
		appendErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "journal",
			Name:        "append_errors_total",
			Help:        "Number of failed append operations.",
			ConstLabels: constLabels,
		}),
		bytesOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "journal",
			Name:        "bytes_written_total",
			Help:        "Total bytes written to the journal file.",
			ConstLabels: constLabels,
		}),
		rolls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "journal",
			Name:        "rolls_total",
			Help:        "Number of successful rotations.",
			ConstLabels: constLabels,
		}),
		rollErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "journal",
			Name:        "roll_errors_total",
			Help:        "Number of failed rotations.",
			ConstLabels: constLabels,
		}),
		replays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "journal",
			Name:        "replays_total",
			Help:        "Number of replay passes completed.",
			ConstLabels: constLabels,
		}),
		replayRecs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "journal",
			Name:        "replayed_records_total",
			Help:        "Number of records successfully decoded during replay.",
			ConstLabels: constLabels,
		}),
		rbFills: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "journal",
			Name:        "readbehind_fills_total",
			Help:        "Number of fill_read_behind calls.",
			ConstLabels: constLabels,
		}),
		rbDelivers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "journal",
			Name:        "readbehind_delivered_total",
			Help:        "Number of items delivered by the read-behind cursor.",
			ConstLabels: constLabels,
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "journal",
			Name:        "size_bytes",
			Help:        "Current observable byte length of the journal.",
			ConstLabels: constLabels,
		}),
		appendDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "journal",
			Name:        "append_duration_seconds",
			Help:        "Latency of a single append call, including retried short writes.",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.appends.Describe(ch)
	ch <- c.appendErrs.Desc()
	ch <- c.bytesOut.Desc()
	ch <- c.rolls.Desc()
	ch <- c.rollErrs.Desc()
	ch <- c.replays.Desc()
	ch <- c.replayRecs.Desc()
	ch <- c.rbFills.Desc()
	ch <- c.rbDelivers.Desc()
	ch <- c.size.Desc()
	ch <- c.appendDur.Desc()
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.appends.Collect(ch)
	ch <- c.appendErrs
	ch <- c.bytesOut
	ch <- c.rolls
	ch <- c.rollErrs
	ch <- c.replays
	ch <- c.replayRecs
	ch <- c.rbFills
	ch <- c.rbDelivers
	ch <- c.size
	ch <- c.appendDur
}

// RecordAppend records a successful append of the given opcode and total
// record length (in bytes, including opcode and any length prefix).
func (c *Collector) RecordAppend(op string, recordLen int, took time.Duration) {
	c.appends.WithLabelValues(op).Inc()
	c.bytesOut.Add(float64(recordLen))
	c.appendDur.Observe(took.Seconds())
}

// RecordAppendError records a failed append.
func (c *Collector) RecordAppendError() {
	c.appendErrs.Inc()
}

// RecordRoll records a successful rotation.
func (c *Collector) RecordRoll() {
	c.rolls.Inc()
}

// RecordRollError records a failed rotation.
func (c *Collector) RecordRollError() {
	c.rollErrs.Inc()
}

// RecordReplay records one completed replay pass and the number of
// records it successfully decoded.
func (c *Collector) RecordReplay(recordCount int) {
	c.replays.Inc()
	c.replayRecs.Add(float64(recordCount))
}

// RecordReadBehindFill records one fill_read_behind call, and whether it
// delivered an item to the caller.
func (c *Collector) RecordReadBehindFill(delivered bool) {
	c.rbFills.Inc()
	if delivered {
		c.rbDelivers.Inc()
	}
}

// SetSize updates the current observable journal size gauge.
func (c *Collector) SetSize(size int64) {
	c.size.Set(float64(size))
}

// NoopCollector discards everything; it is the default when metrics are
// not wired.
type NoopCollector struct{}

func (NoopCollector) RecordAppend(string, int, time.Duration) {}
func (NoopCollector) RecordAppendError()                      {}
func (NoopCollector) RecordRoll()                              {}
func (NoopCollector) RecordRollError()                         {}
func (NoopCollector) RecordReplay(int)                         {}
func (NoopCollector) RecordReadBehindFill(bool)                {}
func (NoopCollector) SetSize(int64)                            {}
