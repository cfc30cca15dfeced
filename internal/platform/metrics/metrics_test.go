package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveEndpointLatency("GET /exchanges/{exchangeID}", 0.02)
	m.ObserveEndpointLatency("GET /exchanges/{exchangeID}", 0.03)

	assert.Equal(t, 1, testutil.CollectAndCount(m.EndpointLatency))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 1)
}
