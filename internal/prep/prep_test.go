package prep

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/trilist/internal/mgt"
	"github.com/hupe1980/trilist/internal/vertex"
	"github.com/hupe1980/trilist/testutil"
)

// readGraph reads base back into adjacency lists, checking that the degree
// file names every vertex in order.
func readGraph(t *testing.T, base string) [][]vertex.ID {
	t.Helper()
	deg := testutil.ReadIDs(t, vertex.DegName(base))
	adj := testutil.ReadIDs(t, vertex.AdjName(base))
	require.Zero(t, len(deg)%2)

	out := make([][]vertex.ID, len(deg)/2)
	off := 0
	for i := range out {
		require.Equal(t, vertex.ID(i), deg[2*i], "degree pair %d", i)
		d := int(deg[2*i+1])
		require.LessOrEqual(t, off+d, len(adj))
		if d > 0 {
			out[i] = append([]vertex.ID(nil), adj[off:off+d]...)
		}
		off += d
	}
	require.Equal(t, len(adj), off)
	return out
}

func TestWriter_FillsGaps(t *testing.T) {
	base := filepath.Join(t.TempDir(), "g")
	w, err := NewWriter(nil, base, WithBufferSize(3))
	require.NoError(t, err)
	require.NoError(t, w.AddEdge(1, 4))
	require.NoError(t, w.AddEdge(1, 2))
	require.NoError(t, w.AddEdge(3, 0))
	require.NoError(t, w.Close())

	assert.Equal(t, []vertex.ID{0, 0, 1, 2, 2, 0, 3, 1, 4, 0}, testutil.ReadIDs(t, vertex.DegName(base)))
	assert.Equal(t, []vertex.ID{4, 2, 0}, testutil.ReadIDs(t, vertex.AdjName(base)))
	assert.Equal(t, vertex.ID(2), w.MaxDegree())
	assert.Equal(t, uint64(3), w.Edges())
	assert.NoError(t, w.Close())
}

func TestWriter_FillOptions(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, "nostart")
	w, err := NewWriter(nil, base, WithoutFillStart(), WithoutFillEnd())
	require.NoError(t, err)
	require.NoError(t, w.AddEdge(2, 9))
	require.NoError(t, w.AddEdge(4, 5))
	require.NoError(t, w.Close())
	assert.Equal(t, []vertex.ID{2, 1, 3, 0, 4, 1}, testutil.ReadIDs(t, vertex.DegName(base)))

	base = filepath.Join(dir, "padded")
	w, err = NewWriter(nil, base, WithVertexCount(4))
	require.NoError(t, err)
	require.NoError(t, w.AddEdge(0, 1))
	require.NoError(t, w.Close())
	assert.Equal(t, []vertex.ID{0, 1, 1, 0, 2, 0, 3, 0}, testutil.ReadIDs(t, vertex.DegName(base)))

	base = filepath.Join(dir, "empty")
	w, err = NewWriter(nil, base, WithVertexCount(2))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, []vertex.ID{0, 0, 1, 0}, testutil.ReadIDs(t, vertex.DegName(base)))
	assert.Empty(t, testutil.ReadIDs(t, vertex.AdjName(base)))
}

func TestWriter_Unsorted(t *testing.T) {
	w, err := NewWriter(nil, filepath.Join(t.TempDir(), "g"))
	require.NoError(t, err)
	require.NoError(t, w.AddEdge(3, 1))
	assert.ErrorIs(t, w.AddEdge(2, 1), ErrUnsorted)
	require.NoError(t, w.Close())
	assert.Error(t, w.AddEdge(4, 1))
}

func TestParseEdgeList(t *testing.T) {
	in := `# Directed graph
# FromNodeId	ToNodeId
0	1
0 1
2 0 17
% other comment

1 1
4 2
`
	base := filepath.Join(t.TempDir(), "g")
	st, err := ParseEdgeList(strings.NewReader(in), nil, base)
	require.NoError(t, err)
	assert.Equal(t, Stats{Vertices: 5, Edges: 3, MaxDegree: 1}, st)
	assert.Equal(t, [][]vertex.ID{{1}, nil, {0}, nil, {2}}, readGraph(t, base))
}

func TestParseEdgeList_Errors(t *testing.T) {
	base := filepath.Join(t.TempDir(), "g")
	for _, in := range []string{"0\n", "a b\n", "1 -2\n", fmt.Sprintf("0 %d\n", vertex.Uninit)} {
		_, err := ParseEdgeList(strings.NewReader(in), nil, base)
		var pe *ParseError
		require.True(t, errors.As(err, &pe), "input %q", in)
		assert.Equal(t, 1, pe.Line)
	}
}

func TestUndirect(t *testing.T) {
	dir := t.TempDir()
	directed := filepath.Join(dir, "d")
	testutil.WriteGraph(t, directed, [][]vertex.ID{{1, 2}, {2, 2}, {}, {0, 0}})

	out := filepath.Join(dir, "u")
	st, err := Undirect(nil, directed, out)
	require.NoError(t, err)
	assert.Equal(t, [][]vertex.ID{{1, 2, 3}, {0, 2}, {0, 1}, {0}}, readGraph(t, out))
	assert.Equal(t, vertex.ID(3), st.MaxDegree)
	assert.Equal(t, uint64(8), st.Edges)
}

func TestUndirect_MatchesReference(t *testing.T) {
	rng := testutil.NewRNG(3)
	n := 70
	edges := rng.RandomGraph(n, 0.1)
	// only one direction of every edge
	half := make([][]vertex.ID, n)
	for _, e := range edges {
		half[e.U] = append(half[e.U], e.V)
	}
	dir := t.TempDir()
	in := filepath.Join(dir, "half")
	testutil.WriteGraph(t, in, half)

	out := filepath.Join(dir, "und")
	_, err := Undirect(nil, in, out)
	require.NoError(t, err)
	want := testutil.Undirected(n, edges)
	got := readGraph(t, out)
	for u := range want {
		if len(want[u]) == 0 {
			want[u] = nil
		}
	}
	// trailing isolated vertices keep their pairs
	require.Len(t, got, n)
	assert.Equal(t, want, got)
}

func TestOrient_MatchesReference(t *testing.T) {
	rng := testutil.NewRNG(4)
	n := 90
	und := testutil.Undirected(n, rng.RandomGraph(n, 0.12))
	want := testutil.Orient(und)
	for u := range want {
		if len(want[u]) == 0 {
			want[u] = nil
		}
	}

	dir := t.TempDir()
	in := filepath.Join(dir, "g")
	testutil.WriteGraph(t, in, und)

	for _, threads := range []int{1, 2, 3, 8} {
		out := filepath.Join(dir, fmt.Sprintf("g-oriented-%dt", threads))
		maxDeg, err := Orient(context.Background(), nil, in, out, OrientConfig{Threads: threads, BufferSize: 6})
		require.NoError(t, err)
		assert.Equal(t, testutil.MaxDegree(want), maxDeg, "threads=%d", threads)
		assert.Equal(t, want, readGraph(t, out), "threads=%d", threads)

		// parts are cleaned up
		for i := range threads {
			assert.NoFileExists(t, vertex.AdjName(vertex.ShardName(out, i)))
		}
	}
}

func TestOrient_IsolatedEnds(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "g")
	// vertices 0, 1 and 5 are isolated
	und := [][]vertex.ID{nil, nil, {3, 4}, {2, 4}, {2, 3}, nil}
	testutil.WriteGraph(t, in, und)

	for _, threads := range []int{1, 4} {
		out := filepath.Join(dir, fmt.Sprintf("o%d", threads))
		_, err := Orient(context.Background(), nil, in, out, OrientConfig{Threads: threads, BufferSize: 2})
		require.NoError(t, err)
		assert.Equal(t, [][]vertex.ID{nil, nil, {3, 4}, {4}, nil, nil}, readGraph(t, out), "threads=%d", threads)
	}
}

func TestKeep(t *testing.T) {
	assert.True(t, Keep(5, 1, 2, 3))
	assert.False(t, Keep(1, 5, 3, 2))
	assert.True(t, Keep(1, 5, 2, 2))
	assert.False(t, Keep(5, 1, 2, 2))
}

func TestPipeline_CountsTriangles(t *testing.T) {
	// two triangles sharing the edge 1-2, listed in one direction only and
	// with a duplicate
	in := "0 1\n1 2\n2 0\n1 3\n3 2\n2 1\n"
	dir := t.TempDir()
	raw := filepath.Join(dir, "raw")
	und := filepath.Join(dir, "und")
	ori := filepath.Join(dir, "und-oriented")

	_, err := ParseEdgeList(strings.NewReader(in), nil, raw)
	require.NoError(t, err)
	_, err = Undirect(nil, raw, und)
	require.NoError(t, err)
	maxDeg, err := Orient(context.Background(), nil, und, ori, OrientConfig{})
	require.NoError(t, err)

	e, err := mgt.New(mgt.Config{Base: ori, MaxDegree: maxDeg, MemoryBytes: 1 << 16, AvgDegree: 1, BufferSize: 16})
	require.NoError(t, err)
	st, err := e.Run(0, vertex.MaxEdges)
	require.NoError(t, err)
	require.NoError(t, e.Close())
	assert.Equal(t, uint64(2), st.Triangles)
}
