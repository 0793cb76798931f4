package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGathers(t *testing.T) {
	r := NewRegistry()
	r.ScansTotal.Inc()
	r.CacheHits.Inc()
	r.CacheHits.Inc()
	r.TickerResults.WithLabelValues("ok").Inc()
	r.ScanDuration.Observe(12.5)

	families, err := r.Prometheus().Gather()
	require.NoError(t, err)

	byName := map[string]bool{}
	for _, mf := range families {
		byName[mf.GetName()] = true
	}
	assert.True(t, byName["baroscan_scans_total"])
	assert.True(t, byName["baroscan_cache_hits_total"])
	assert.True(t, byName["baroscan_ticker_results_total"])
	assert.True(t, byName["baroscan_scan_duration_seconds"])
}

func TestRegistriesAreIndependent(t *testing.T) {
	// Two registries must never collide; each run gets its own collectors.
	a := NewRegistry()
	b := NewRegistry()
	a.ScansTotal.Inc()

	families, err := b.Prometheus().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "baroscan_scans_total" {
			for _, m := range mf.GetMetric() {
				assert.Equal(t, 0.0, m.GetCounter().GetValue())
			}
		}
	}
}
