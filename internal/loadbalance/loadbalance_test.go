package loadbalance

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/trilist/internal/degree"
	"github.com/hupe1980/trilist/internal/vertex"
	"github.com/hupe1980/trilist/testutil"
)

type fixture struct {
	oriented, unoriented degree.Lookup
	edges                uint64
	vertices             uint64
}

func newFixture(t *testing.T, n int, p float64, seed int64) fixture {
	t.Helper()
	rng := testutil.NewRNG(seed)
	und := testutil.Undirected(n, rng.RandomGraph(n, p))
	ori := testutil.Orient(und)

	dir := t.TempDir()
	testutil.WriteGraph(t, filepath.Join(dir, "g"), und)
	testutil.WriteGraph(t, filepath.Join(dir, "g-oriented"), ori)

	o, err := degree.NewDirect(nil, vertex.DegName(filepath.Join(dir, "g-oriented")))
	require.NoError(t, err)
	u, err := degree.NewDirect(nil, vertex.DegName(filepath.Join(dir, "g")))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = o.Close()
		_ = u.Close()
	})
	return fixture{oriented: o, unoriented: u, edges: testutil.EdgeCount(ori), vertices: uint64(n)}
}

func TestStrategies_Coverage(t *testing.T) {
	f := newFixture(t, 120, 0.1, 3)

	for _, chunks := range []int{1, 2, 3, 7, 16, 64} {
		strategies := map[string]Strategy{
			"linear":               Linear{Edges: f.edges, Vertices: f.vertices, Chunks: chunks},
			"coefficient":          Coefficient{Edges: f.edges, Vertices: f.vertices, Threads: chunks, Coefficient: 2},
			"volume":               Volume{Oriented: f.oriented, Unoriented: f.unoriented, Edges: f.edges, MemoryMiB: 1, Threads: 1, Chunks: chunks},
			"volume-oriented-only": Volume{Oriented: f.oriented, Edges: f.edges, MemoryMiB: 1, Threads: 2, Chunks: chunks},
		}
		for name, s := range strategies {
			p, err := s.Balance()
			require.NoError(t, err, name)
			require.NoError(t, p.Validate(f.edges), "%s chunks=%d", name, chunks)

			want := chunks
			if name == "coefficient" {
				want = 2 * chunks
			}
			assert.Equal(t, want, p.Len(), name)
			assert.Len(t, p.Bounds, want+1, name)
			for i, avg := range p.AvgDegree {
				assert.GreaterOrEqual(t, avg, 0.0, "%s chunk %d", name, i)
			}
		}
	}
}

func TestVolume_SingleChunk(t *testing.T) {
	f := newFixture(t, 30, 0.3, 5)
	p, err := Volume{Oriented: f.oriented, Unoriented: f.unoriented, Edges: f.edges, Chunks: 1}.Balance()
	require.NoError(t, err)

	assert.Equal(t, []uint64{0, f.edges}, p.Bounds)
	assert.InDelta(t, float64(f.edges)/30, p.AvgDegree[0], 1e-9)
}

// A star has one vertex whose oriented edges are cheap and many cheap
// vertices pointing at the hub; weights must still cover every edge.
func TestVolume_WeightsSkewedGraph(t *testing.T) {
	const n = 200
	var edges []testutil.Edge
	for v := 1; v < n; v++ {
		edges = append(edges, testutil.Edge{U: 0, V: vertex.ID(v)})
	}
	for v := 1; v+1 < n; v += 2 {
		edges = append(edges, testutil.Edge{U: vertex.ID(v), V: vertex.ID(v + 1)})
	}
	und := testutil.Undirected(n, edges)
	ori := testutil.Orient(und)

	dir := t.TempDir()
	testutil.WriteGraph(t, filepath.Join(dir, "s"), und)
	testutil.WriteGraph(t, filepath.Join(dir, "s-o"), ori)
	o, err := degree.NewDirect(nil, vertex.DegName(filepath.Join(dir, "s-o")))
	require.NoError(t, err)
	defer o.Close()
	u, err := degree.NewDirect(nil, vertex.DegName(filepath.Join(dir, "s")))
	require.NoError(t, err)
	defer u.Close()

	total := testutil.EdgeCount(ori)
	p, err := Volume{Oriented: o, Unoriented: u, Edges: total, MemoryMiB: 1, Threads: 1, Chunks: 4}.Balance()
	require.NoError(t, err)
	require.NoError(t, p.Validate(total))

	stats := p.Stats()
	assert.Equal(t, 4, stats.Chunks)
	assert.InDelta(t, float64(total)/4, stats.MeanEdges, 1e-9)
	assert.GreaterOrEqual(t, stats.Imbalance, 1.0)
}

func TestVolume_EmptyGraph(t *testing.T) {
	base := filepath.Join(t.TempDir(), "e")
	testutil.WriteGraph(t, base, make([][]vertex.ID, 5))
	o, err := degree.NewDirect(nil, vertex.DegName(base))
	require.NoError(t, err)
	defer o.Close()

	p, err := Volume{Oriented: o, MemoryMiB: 1, Threads: 1, Chunks: 3}.Balance()
	require.NoError(t, err)
	require.NoError(t, p.Validate(0))
	assert.Equal(t, []uint64{0, 0, 0, 0}, p.Bounds)
}

func TestStrategies_Errors(t *testing.T) {
	f := newFixture(t, 10, 0.5, 1)

	_, err := Linear{Edges: 10, Chunks: 0}.Balance()
	assert.ErrorIs(t, err, ErrNoChunks)
	_, err = Coefficient{Edges: 10, Threads: 4, Coefficient: 0.1}.Balance()
	assert.ErrorIs(t, err, ErrNoChunks)
	_, err = Volume{Oriented: f.oriented, Edges: f.edges, Chunks: 0}.Balance()
	assert.ErrorIs(t, err, ErrNoChunks)
	_, err = Volume{Oriented: f.oriented, Edges: f.edges, Threads: 1, Chunks: 2}.Balance()
	assert.ErrorIs(t, err, ErrNoMemory)
}

func TestPlan_Validate(t *testing.T) {
	tests := []struct {
		name string
		plan Plan
		ok   bool
	}{
		{"valid", Plan{Bounds: []uint64{0, 3, 3, 9}, AvgDegree: []float64{1, 1, 1}}, true},
		{"bad start", Plan{Bounds: []uint64{1, 9}, AvgDegree: []float64{1}}, false},
		{"bad end", Plan{Bounds: []uint64{0, 8}, AvgDegree: []float64{1}}, false},
		{"decreasing", Plan{Bounds: []uint64{0, 5, 4, 9}, AvgDegree: []float64{1, 1, 1}}, false},
		{"length mismatch", Plan{Bounds: []uint64{0, 9}, AvgDegree: []float64{1, 1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan.Validate(9)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidPlan)
			}
		})
	}
}

func TestPlan_RangeAndSpan(t *testing.T) {
	p, err := Linear{Edges: 10, Vertices: 5, Chunks: 3}.Balance()
	require.NoError(t, err)

	assert.Equal(t, []uint64{0, 3, 6, 10}, p.Bounds)
	assert.Equal(t, []float64{2, 2, 2}, p.AvgDegree)
	lo, hi := p.Range(2)
	assert.Equal(t, uint64(6), lo)
	assert.Equal(t, uint64(10), hi)
	lo, hi = p.Span(1, 2)
	assert.Equal(t, uint64(3), lo)
	assert.Equal(t, uint64(10), hi)
	assert.Equal(t, uint64(10), p.Edges())
}

func TestPlanFiles(t *testing.T) {
	rng := testutil.NewRNG(11)
	und := testutil.Undirected(80, rng.RandomGraph(80, 0.15))
	ori := testutil.Orient(und)

	dir := t.TempDir()
	testutil.WriteGraph(t, filepath.Join(dir, "g"), und)
	testutil.WriteGraph(t, filepath.Join(dir, "g-oriented"), ori)
	edges := testutil.EdgeCount(ori)

	p, err := PlanFiles(nil, VolumeFiles{
		Base:       filepath.Join(dir, "g-oriented"),
		Unoriented: filepath.Join(dir, "g"),
		MemoryMiB:  1,
		Threads:    2,
		Chunks:     5,
		Window:     64,
	})
	require.NoError(t, err)
	require.NoError(t, p.Validate(edges))
	assert.Equal(t, 5, p.Len())

	_, err = PlanFiles(nil, VolumeFiles{Base: filepath.Join(dir, "missing"), Chunks: 1})
	assert.Error(t, err)
}
