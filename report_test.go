package trilist

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/trilist/codec"
)

func TestReport_FromResult(t *testing.T) {
	res := &Result{
		Base:      "g-oriented",
		Triangles: 12,
		MaxDegree: 5,
		Output:    "g-oriented.out",
		Plan:      PlanStats{Chunks: 2, MeanEdges: 50, MaxEdges: 60, Imbalance: 1.2},
		Chunks: []ChunkStat{
			{Index: 0, Low: 0, High: 40, Triangles: 5, Phases: 1, Elapsed: 500 * time.Millisecond},
			{Index: 1, Low: 40, High: 100, Triangles: 7, Phases: 3, Elapsed: time.Second},
		},
		Timings: Timings{Balance: time.Second, Count: 2 * time.Second},
		Elapsed: 3 * time.Second,
	}

	rep := res.Report()
	assert.Equal(t, "local", rep.Mode)
	assert.Equal(t, uint64(5), rep.MaxDegree)
	require.Len(t, rep.Chunks, 2)
	assert.InDelta(t, 0.5, rep.Chunks[0].Seconds, 1e-9)
	assert.Equal(t, uint64(60), rep.Chunks[1].High-rep.Chunks[1].Low)
	assert.Equal(t, 3*time.Second, rep.Elapsed())
	assert.Equal(t, 1.2, rep.Plan.Imbalance)
}

func TestReport_Codecs(t *testing.T) {
	rep := &Report{
		Graph:     "g",
		Mode:      "master",
		Triangles: 99,
		Chunks:    []ChunkReport{{Index: 0, High: 10, Triangles: 99}},
		Remote:    []RemoteReport{{Server: "10.0.0.2:5000", Count: 2, Triangles: 40, BytesSent: 1 << 20}},
		Timings:   TimingsReport{Total: 1.5},
	}

	for _, c := range []codec.Codec{codec.JSON{}, codec.Sonnet{}, nil} {
		data, err := rep.Encode(c)
		require.NoError(t, err)

		// Both codecs read each other's documents.
		for _, d := range []codec.Codec{codec.JSON{}, codec.Sonnet{}} {
			got, err := DecodeReport(data, d)
			require.NoError(t, err)
			assert.Equal(t, rep, got)
		}
	}
}

func TestReport_WriteTo(t *testing.T) {
	g := newGraph(t, 50, 0.2, 77)
	res, err := Count(context.Background(), g.base, small(WithInstances(2))...)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := res.Report().WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, byte('\n'), buf.Bytes()[buf.Len()-1])

	got, err := DecodeReport(buf.Bytes(), nil)
	require.NoError(t, err)
	assert.Equal(t, res.Triangles, got.Triangles)
	assert.Len(t, got.Chunks, 2)
}
