package sapmodel

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsObserver records native call counts and latencies as Prometheus
// metrics.
type MetricsObserver struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetricsObserver creates the metrics and registers them with reg.
// namespace may be empty.
func NewMetricsObserver(reg prometheus.Registerer, namespace string) (*MetricsObserver, error) {
	m := &MetricsObserver{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "native",
			Name:      "calls_total",
			Help:      "Native calls issued, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "native",
			Name:      "call_duration_seconds",
			Help:      "Wall time of native calls, by operation.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"operation"}),
	}

	for _, c := range []prometheus.Collector{m.calls, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering native call metrics: %w", err)
		}
	}
	return m, nil
}

// ObserveCall records ev.
func (m *MetricsObserver) ObserveCall(ev CallEvent) {
	m.calls.WithLabelValues(ev.Operation, outcomeLabel(ev)).Inc()
	m.duration.WithLabelValues(ev.Operation).Observe(ev.Duration.Seconds())
}

func outcomeLabel(ev CallEvent) string {
	switch {
	case ev.Err != nil:
		return strings.ToLower(string(KindOf(ev.Err)))
	case ev.ReturnCode != 0:
		return "return_code"
	default:
		return "ok"
	}
}
