package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAccumulate(t *testing.T) {
	m := New()

	m.IncStaged("RENT_FLAT")
	m.IncStaged("RENT_FLAT")
	m.IncSkipped("RENT_FLAT", "redirect")
	m.AddPages("RENT_FLAT", 4)
	m.AddUnknownLabels(0)
	m.AddUnknownLabels(2)
	m.ObserveRun("RENT_FLAT", "success", 3*time.Second)
	m.ObserveFetch("ok", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsStaged.WithLabelValues("RENT_FLAT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsSkipped.WithLabelValues("RENT_FLAT", "redirect")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.PagesDiscovered.WithLabelValues("RENT_FLAT")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.UnknownLabels))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("RENT_FLAT", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("ok")))
}

func TestRegistryServesExtraCollectors(t *testing.T) {
	m := New()
	m.IncStaged("SELL_FLAT")
	require.NoError(t, m.Registry().Register(collectors.NewGoCollector()))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["harvester_records_staged_total"])
	assert.True(t, names["go_goroutines"])

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `harvester_records_staged_total{category="SELL_FLAT"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveFetch("ok", time.Second)
		m.AddPages("RENT_FLAT", 1)
		m.IncStaged("RENT_FLAT")
		m.IncSkipped("RENT_FLAT", "parse")
		m.AddUnknownLabels(1)
		m.ObserveRun("RENT_FLAT", "failed", time.Second)
	})
	assert.Nil(t, m.Registry())
	assert.NotNil(t, m.Handler())
}
