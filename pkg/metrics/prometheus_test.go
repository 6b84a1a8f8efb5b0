package metrics

import (
	"testing"

	"github.com/go-playground/assert/v2"
	"github.com/prometheus/client_golang/prometheus"

	"Signalist/internal/domain/models"
)

func counterValues(t *testing.T, reg *prometheus.Registry, name string) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	assert.Equal(t, nil, err)

	out := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			key := ""
			for _, lp := range m.GetLabel() {
				key += lp.GetValue() + "/"
			}
			out[key] = m.GetCounter().GetValue()
		}
	}
	return out
}

func TestRecorderCountsUpstreamCalls(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegisterer(reg)

	r.RecordUpstreamCall("quote", 0.1)
	r.RecordUpstreamCall("quote", 0.2)
	r.RecordUpstreamCall("company-news", 0.3)
	r.RecordUpstreamError("quote")

	assert.Equal(t, map[string]float64{"company-news/": 1, "quote/": 2}, counterValues(t, reg, "signalist_upstream_calls_total"))
	assert.Equal(t, map[string]float64{"quote/": 1}, counterValues(t, reg, "signalist_upstream_errors_total"))
}

func TestRecorderCountsDegradedResults(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegisterer(reg)

	r.RecordDegraded("news", models.ReasonMissingCredential)
	r.RecordDegraded("quotes", models.ReasonPartial)
	r.RecordDegraded("quotes", models.ReasonPartial)

	got := counterValues(t, reg, "signalist_degraded_results_total")
	assert.Equal(t, float64(1), got["news/"+string(models.ReasonMissingCredential)+"/"])
	assert.Equal(t, float64(2), got["quotes/"+string(models.ReasonPartial)+"/"])
}

func TestNewWithRegistererNilSkipsRegistration(t *testing.T) {
	r := NewWithRegisterer(nil)
	r.RecordUpstreamCall("quote", 0.1)
}
