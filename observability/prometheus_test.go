package observability_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tokenledger/observability"
)

func gathered(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	out := make(map[string]float64, len(families))
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				out[mf.GetName()] = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				out[mf.GetName()] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func TestPrometheusFactory(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := observability.NewPrometheusFactory(reg, "dht")

	c := f.Counter("tokenledger.transfer.applied")
	c.Inc()
	c.Add(2)
	f.Histogram("tokenledger.journal.flush.latency_ms").Observe(12)

	got := gathered(t, reg)
	require.Equal(t, 3.0, got["dht_tokenledger_transfer_applied"])
	require.Equal(t, 1.0, got["dht_tokenledger_journal_flush_latency_ms"])
}

func TestPrometheusFactoryReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := observability.NewPrometheusFactory(reg, "")
	second := observability.NewPrometheusFactory(reg, "")
	first.Counter("tokenledger.mint.applied").Inc()
	second.Counter("tokenledger.mint.applied").Inc()
	require.Same(t, first.Counter("tokenledger.mint.applied"), first.Counter("tokenledger.mint.applied"))

	require.Equal(t, 2.0, gathered(t, reg)["tokenledger_mint_applied"])
}

func TestPrometheusBackedMetricsExtension(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetricsExtension(observability.NewPrometheusFactory(reg, ""))
	m.TransfersApplied.Inc()

	got := gathered(t, reg)
	require.Equal(t, 1.0, got["tokenledger_transfer_applied"])
	require.Contains(t, got, "tokenledger_journal_batch_size")
}
