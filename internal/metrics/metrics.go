package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gridplug"

// Load outcomes.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Invocation outcomes.
const (
	OutcomeOK             = "ok"
	OutcomeNegative       = "negative"
	OutcomeNotFound       = "not_found"
	OutcomePreHookFailed  = "pre_hook_failed"
	OutcomePostHookFailed = "post_hook_failed"
)

// UnknownOperation is the operation label of calls to names that are not
// bound, so callers cannot grow the label set.
const UnknownOperation = "unknown"

// PluginMetrics records plugin loads and operation invocations.
type PluginMetrics interface {
	// RecordLoad counts one load attempt of a plugin category.
	RecordLoad(category, status string)

	// RecordInvocation counts one Invoke call and observes its duration.
	RecordInvocation(instance, operation, outcome string, duration time.Duration)
}

type prometheusPluginMetrics struct {
	loads       *prometheus.CounterVec
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

var (
	pluginMetrics     *prometheusPluginMetrics
	pluginMetricsOnce sync.Once
)

// NewPluginMetrics returns the Prometheus backed PluginMetrics registered with
// the global registry.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry not called).
//
//nolint:ireturn // the implementation depends on whether metrics are enabled
func NewPluginMetrics() PluginMetrics {
	if !IsEnabled() {
		return NewNoopPluginMetrics()
	}

	pluginMetricsOnce.Do(func() {
		reg := GetRegistry()

		pluginMetrics = &prometheusPluginMetrics{
			loads: promauto.With(reg).NewCounterVec(
				prometheus.CounterOpts{
					Name: namespace + "_plugin_loads_total",
					Help: "Total number of plugin load attempts by category and status",
				},
				[]string{"category", "status"},
			),
			invocations: promauto.With(reg).NewCounterVec(
				prometheus.CounterOpts{
					Name: namespace + "_operation_invocations_total",
					Help: "Total number of plugin operation invocations by instance, operation and outcome",
				},
				[]string{"instance", "operation", "outcome"},
			),
			duration: promauto.With(reg).NewHistogramVec(
				prometheus.HistogramOpts{
					Name: namespace + "_operation_duration_seconds",
					Help: "Duration of plugin operation invocations including policy hooks",
					Buckets: []float64{
						0.00001, // 10us
						0.0001,  // 100us
						0.001,   // 1ms
						0.01,    // 10ms
						0.1,     // 100ms
						1,       // 1s
					},
				},
				[]string{"instance", "operation"},
			),
		}
	})

	return pluginMetrics
}

func (m *prometheusPluginMetrics) RecordLoad(category, status string) {
	m.loads.WithLabelValues(category, status).Inc()
}

func (m *prometheusPluginMetrics) RecordInvocation(
	instance, operation, outcome string,
	duration time.Duration,
) {
	m.invocations.WithLabelValues(instance, operation, outcome).Inc()
	m.duration.WithLabelValues(instance, operation).Observe(duration.Seconds())
}

type noopPluginMetrics struct{}

// NewNoopPluginMetrics returns a PluginMetrics that records nothing.
//
//nolint:ireturn // no-op implementation of the interface
func NewNoopPluginMetrics() PluginMetrics {
	return noopPluginMetrics{}
}

func (noopPluginMetrics) RecordLoad(string, string) {}

func (noopPluginMetrics) RecordInvocation(string, string, string, time.Duration) {}
