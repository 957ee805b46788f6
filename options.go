package treemirror

import (
	"log/slog"
	"time"
)

type options struct {
	searchInterval   time.Duration
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Agent constructor behavior.
type Option func(*options)

// WithSearchInterval configures the pause between incremental search
// ticks. Values <= 0 select the scheduler default.
//
// Shorter intervals drain the job queue faster at the cost of tree lock
// contention; tests use very short intervals to keep runtimes low.
func WithSearchInterval(interval time.Duration) Option {
	return func(o *options) {
		o.searchInterval = interval
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &treemirror.BasicMetricsCollector{}
//	agent, _ := treemirror.New(f, treemirror.WithMetricsCollector(metrics))
//	// ... use agent ...
//	stats := metrics.GetStats()
//	fmt.Printf("Commands: %d, Avg latency: %dns\n", stats.CommandCount, stats.CommandAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := treemirror.NewJSONLogger(slog.LevelInfo)
//	agent, _ := treemirror.New(f, treemirror.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
