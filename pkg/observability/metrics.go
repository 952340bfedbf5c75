package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/parley-ai/parley/pkg/domain"
)

// Metrics collects engine execution metrics and adapts them to lifecycle
// hooks.
type Metrics struct {
	nodeDuration *prometheus.HistogramVec
	nodeErrors   *prometheus.CounterVec
	nodesEntered *prometheus.CounterVec
	fallbacks    prometheus.Counter
}

// NewMetrics registers the engine metrics against reg. Pass
// prometheus.DefaultRegisterer to expose them on the default /metrics
// endpoint.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		nodeDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "parley",
			Subsystem: "engine",
			Name:      "node_duration_seconds",
			Help:      "Wall-clock execution time per graph node.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node"}),
		nodeErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "parley",
			Subsystem: "engine",
			Name:      "node_errors_total",
			Help:      "Node executions that returned an error.",
		}, []string{"node"}),
		nodesEntered: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "parley",
			Subsystem: "engine",
			Name:      "node_executions_total",
			Help:      "Node executions started.",
		}, []string{"node"}),
		fallbacks: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "parley",
			Subsystem: "dialogue",
			Name:      "classification_fallbacks_total",
			Help:      "Turns where intent classification failed and the fallback was used.",
		}),
	}
}

// FallbackObserver returns a callback counting classification fallbacks.
func (m *Metrics) FallbackObserver() func() {
	return m.fallbacks.Inc
}

// Hooks returns lifecycle hooks feeding this collector.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, ev *domain.NodeEvent) {
			m.nodesEntered.WithLabelValues(ev.Node).Inc()
		},
		OnNodeLeave: func(_ context.Context, ev *domain.NodeEvent) {
			m.nodeDuration.WithLabelValues(ev.Node).Observe(ev.Duration.Seconds())
			if ev.Err != nil {
				m.nodeErrors.WithLabelValues(ev.Node).Inc()
			}
		},
	}
}
