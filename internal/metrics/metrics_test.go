package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func family(t *testing.T, m *Metrics, name string) *dto.MetricFamily {
	t.Helper()
	mfs, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric family %s not found", name)
	return nil
}

func labelValue(metric *dto.Metric, name string) string {
	for _, lp := range metric.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func TestObserveLoad(t *testing.T) {
	m := New()
	m.ObserveLoad("csv", false, 12, 30*time.Millisecond)
	m.ObserveLoad("csv", true, 0, time.Millisecond)
	m.ObserveLoad("csv", true, 0, time.Millisecond)

	loads := family(t, m, "casedash_loads_total")
	got := map[string]float64{}
	for _, metric := range loads.GetMetric() {
		got[labelValue(metric, "outcome")] = metric.GetCounter().GetValue()
		assert.Equal(t, "csv", labelValue(metric, "source"))
	}
	assert.Equal(t, map[string]float64{"ok": 1, "degraded": 2}, got)

	rows := family(t, m, "casedash_dataset_rows")
	assert.Equal(t, 0.0, rows.GetMetric()[0].GetGauge().GetValue())

	hist := family(t, m, "casedash_load_duration_seconds")
	assert.Equal(t, uint64(3), hist.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestCacheAndDiagnosticCounters(t *testing.T) {
	m := New()
	m.CacheHit()
	m.CacheHit()
	m.CacheMiss()
	m.ObserveDiagnostic("kpi")

	cache := family(t, m, "casedash_cache_requests_total")
	got := map[string]float64{}
	for _, metric := range cache.GetMetric() {
		got[labelValue(metric, "result")] = metric.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"hit": 2, "miss": 1}, got)

	diag := family(t, m, "casedash_diagnostics_total")
	require.Len(t, diag.GetMetric(), 1)
	assert.Equal(t, "kpi", labelValue(diag.GetMetric()[0], "stage"))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveLoad("csv", false, 1, time.Second)
		m.ObserveDiagnostic("load")
		m.CacheHit()
		m.CacheMiss()
	})
}

func TestHandlerExposition(t *testing.T) {
	m := New()
	m.CacheMiss()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(b)
	assert.True(t, strings.Contains(body, `casedash_cache_requests_total{result="miss"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}
