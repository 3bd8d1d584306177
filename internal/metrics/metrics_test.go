package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestObserveRequestIncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("DISCOVER", "ok")
	m.ObserveRequest("DISCOVER", "ok")
	m.ObserveRequest("REQUEST", "NoLeasesAvailable")

	families, err := reg.Gather()
	require.NoError(t, err)

	var found *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "tinydhcp_requests_total" {
			found = f
		}
	}
	require.NotNil(t, found)
	require.Len(t, found.Metric, 2)
}

func TestSetLeasesActive(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.SetLeasesActive(3)

	families, err := reg.Gather()
	require.NoError(t, err)

	var value float64
	for _, f := range families {
		if f.GetName() == "tinydhcp_leases_active" {
			value = f.Metric[0].GetGauge().GetValue()
		}
	}
	require.Equal(t, float64(3), value)
}
