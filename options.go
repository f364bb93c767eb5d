package journal

// Options configures a Journal. The zero value disables both logging and
// metrics: nil means "disabled" rather than requiring every caller to
// know about NoopLogger and NoopCollector.
type Options struct {
	// Logger receives structured log output. Default: no logging.
	Logger Logger

	// MetricsCollector receives operation counts and latencies. Default:
	// no metrics. Use NewMetricsCollector to get a Prometheus-backed one.
	MetricsCollector MetricsCollector
}

// DefaultOptions returns an Options with logging and metrics disabled.
func DefaultOptions() *Options {
	return &Options{}
}
