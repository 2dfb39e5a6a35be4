package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicObserver(t *testing.T) {
	b := &BasicObserver{}
	b.OnChunk(0, 100, 7, 2, 2*time.Millisecond, nil)
	b.OnChunk(1, 50, 3, 1, 4*time.Millisecond, nil)
	b.OnChunk(2, 10, 0, 0, 0, errors.New("boom"))
	b.OnMemoryWait(time.Second)
	b.OnTransfer("send", 64, 0, nil)
	b.OnTransfer("receive", 32, 0, errors.New("short"))
	b.OnJob("a:1", 10, time.Second, nil)

	s := b.Stats()
	assert.Equal(t, int64(3), s.Chunks)
	assert.Equal(t, int64(1), s.ChunkErrors)
	assert.Equal(t, int64(150), s.ChunkEdges)
	assert.Equal(t, int64(10), s.Triangles)
	assert.Equal(t, int64(3), s.Phases)
	assert.Equal(t, int64(2*time.Millisecond), s.ChunkAvgNanos)
	assert.Equal(t, time.Second, s.MemoryWait)
	assert.Equal(t, int64(64), s.BytesSent)
	assert.Equal(t, int64(32), s.BytesReceived)
	assert.Equal(t, int64(1), s.TransferErrors)
	assert.Equal(t, int64(1), s.Jobs)
}

func TestMultiAndNoop(t *testing.T) {
	a, b := &BasicObserver{}, &BasicObserver{}
	m := Multi{a, b, Or(nil)}
	m.OnChunk(0, 1, 1, 1, 0, nil)
	m.OnJob("x", 1, 0, nil)
	m.OnTransfer("send", 1, 0, nil)
	m.OnMemoryWait(time.Millisecond)

	assert.Equal(t, int64(1), a.Stats().Triangles)
	assert.Equal(t, int64(1), b.Stats().Jobs)
	assert.Same(t, a, Or(a))
}

func TestPrometheusObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	o, err := NewPrometheusObserver(reg)
	require.NoError(t, err)

	o.OnChunk(0, 100, 7, 2, time.Millisecond, nil)
	o.OnChunk(1, 20, 1, 1, time.Millisecond, nil)
	o.OnChunk(2, 5, 0, 0, time.Millisecond, errors.New("boom"))
	o.OnTransfer("send", 4096, time.Millisecond, nil)
	o.OnJob("a:1", 8, time.Second, nil)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	series := map[string]int{}
	for _, mf := range families {
		series[mf.GetName()] = len(mf.GetMetric())
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				values[mf.GetName()] += c.GetValue()
			}
		}
	}

	assert.Equal(t, 8.0, values["trilist_triangles_total"])
	assert.Equal(t, 120.0, values["trilist_chunk_edges_total"])
	assert.Equal(t, 3.0, values["trilist_phases_total"])
	assert.Equal(t, 4096.0, values["trilist_transfer_bytes_total"])
	assert.Equal(t, 2, series["trilist_chunk_duration_seconds"], "success and error series")

	_, err = NewPrometheusObserver(reg)
	assert.Error(t, err, "collectors are already registered")
}
