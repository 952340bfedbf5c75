package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/parley-ai/parley/pkg/domain"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	hooks := m.Hooks()

	ctx := context.Background()
	hooks.OnNodeEnter(ctx, &domain.NodeEvent{Node: "classify_intent"})
	hooks.OnNodeLeave(ctx, &domain.NodeEvent{
		Node:     "classify_intent",
		Duration: 25 * time.Millisecond,
	})
	hooks.OnNodeEnter(ctx, &domain.NodeEvent{Node: "collect_info"})
	hooks.OnNodeLeave(ctx, &domain.NodeEvent{
		Node:     "collect_info",
		Duration: 5 * time.Millisecond,
		Err:      errors.New("extraction failed"),
	})

	assert.Equal(t, float64(1), testutil.ToFloat64(m.nodesEntered.WithLabelValues("classify_intent")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.nodesEntered.WithLabelValues("collect_info")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.nodeErrors.WithLabelValues("classify_intent")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.nodeErrors.WithLabelValues("collect_info")))

	count := testutil.CollectAndCount(m.nodeDuration)
	assert.Equal(t, 2, count)
}

func TestMetrics_FallbackObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	observe := m.FallbackObserver()
	observe()
	observe()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.fallbacks))
}

func TestMetrics_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)

	assert.Panics(t, func() {
		NewMetrics(reg)
	})
}
