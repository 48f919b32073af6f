package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type fakeGate struct{ count int }

func (f *fakeGate) CachedOwnerCount() int { return f.count }

func TestCollectorSamplesCachedOwnerCount(t *testing.T) {
	gate := &fakeGate{count: 3}
	c := NewCollector(gate)
	c.collect()
	require.Equal(t, float64(3), testutil.ToFloat64(CachedOwnerConnections))
}
