package service

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Turn("ok", time.Millisecond)
		m.Selection("ok")
		m.LLMFallback("intent")
		m.CatalogQuery(time.Millisecond)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.Turn("ok", 20*time.Millisecond)
	m.Turn("ok", 30*time.Millisecond)
	m.Turn("error", time.Millisecond)
	m.Selection("reused")
	m.LLMFallback("summary")
	m.CatalogQuery(5 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.turnsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.turnsTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.selections.WithLabelValues("reused")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmFallbacks.WithLabelValues("summary")))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "furnisher_turn_duration_seconds")
	assert.Contains(t, names, "furnisher_catalog_query_duration_seconds")

	// separate instances do not share a registry
	assert.Zero(t, testutil.ToFloat64(NewMetrics().turnsTotal.WithLabelValues("ok")))
}
