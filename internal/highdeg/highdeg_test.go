package highdeg

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/mgt"
	"github.com/hupe1980/trilist/internal/vertex"
	"github.com/hupe1980/trilist/testutil"
)

type graph struct {
	base      string
	adj       [][]vertex.ID
	triangles []testutil.Triangle
}

func writeGraph(t *testing.T, n int, edges []testutil.Edge) graph {
	t.Helper()
	ori := testutil.Orient(testutil.Undirected(n, edges))
	base := filepath.Join(t.TempDir(), "g-oriented")
	testutil.WriteGraph(t, base, ori)
	return graph{base: base, adj: ori, triangles: testutil.BruteForceTriangles(edges)}
}

// wheel is a hub joined to every vertex of a cycle on n-1 rim vertices.
func wheel(n int) []testutil.Edge {
	var edges []testutil.Edge
	for v := 1; v < n; v++ {
		next := v%(n-1) + 1
		edges = append(edges,
			testutil.Edge{U: 0, V: vertex.ID(v)},
			testutil.Edge{U: vertex.ID(v), V: vertex.ID(next)},
		)
	}
	return edges
}

func count(t *testing.T, base string, maxDeg vertex.ID, output string) uint64 {
	t.Helper()
	e, err := mgt.New(mgt.Config{
		Base:        base,
		MaxDegree:   maxDeg,
		MemoryBytes: 1 << 16,
		AvgDegree:   2,
		Output:      output,
		BufferSize:  4,
	})
	require.NoError(t, err)
	st, err := e.Run(0, vertex.MaxEdges)
	require.NoError(t, err)
	require.NoError(t, e.Close())
	return st.Triangles
}

func TestPeel_ThenCountMatchesBruteForce(t *testing.T) {
	for _, seed := range []int64{1, 2, 3} {
		rng := testutil.NewRNG(seed)
		g := writeGraph(t, 50, rng.RandomGraph(50, 0.3))
		require.NotEmpty(t, g.triangles)
		maxDeg := testutil.MaxDegree(g.adj)

		for _, limit := range []vertex.ID{1, 2, 3, maxDeg / 2, maxDeg - 1} {
			if limit == 0 {
				continue
			}
			out := filepath.Join(t.TempDir(), "g-peeled")
			res, err := Peel(context.Background(), nil, Config{Base: g.base, Out: out, MaxDegree: limit, BufferSize: 4})
			require.NoError(t, err)
			require.NotEmpty(t, res.Peeled, "seed=%d cap=%d", seed, limit)
			assert.Equal(t, out, res.Base)
			assert.LessOrEqual(t, res.MaxDegree, limit)
			assert.True(t, slices.IsSorted(res.Peeled))

			rest := count(t, res.Base, limit, "")
			assert.Equal(t, uint64(len(g.triangles)), res.Triangles+rest, "seed=%d cap=%d", seed, limit)
		}
	}
}

func TestPeel_ListingUnion(t *testing.T) {
	g := writeGraph(t, 12, wheel(12))
	require.Len(t, g.triangles, 11)

	dir := t.TempDir()
	peelOut := filepath.Join(dir, "peel.out")
	res, err := Peel(context.Background(), nil, Config{
		Base:       g.base,
		Out:        filepath.Join(dir, "g-peeled"),
		MaxDegree:  1,
		Output:     peelOut,
		BufferSize: 4,
	})
	require.NoError(t, err)

	rest := filepath.Join(dir, "rest.out")
	n := count(t, res.Base, max(res.MaxDegree, 1), rest)
	assert.Equal(t, uint64(len(g.triangles)), res.Triangles+n)

	got := append(testutil.ReadTriangles(t, peelOut), testutil.ReadTriangles(t, rest)...)
	testutil.SortTriangles(got)
	assert.Equal(t, g.triangles, got)
	assert.Len(t, testutil.ReadTriangles(t, peelOut), int(res.Triangles))
}

func TestPeel_NothingToPeel(t *testing.T) {
	rng := testutil.NewRNG(4)
	g := writeGraph(t, 30, rng.RandomGraph(30, 0.2))
	maxDeg := testutil.MaxDegree(g.adj)

	out := filepath.Join(t.TempDir(), "g-peeled")
	listing := out + ".out"
	res, err := Peel(context.Background(), nil, Config{Base: g.base, Out: out, MaxDegree: maxDeg, Output: listing})
	require.NoError(t, err)
	assert.Empty(t, res.Peeled)
	assert.Zero(t, res.Triangles)
	assert.Equal(t, g.base, res.Base)
	assert.Equal(t, maxDeg, res.MaxDegree)

	_, err = os.Stat(vertex.AdjName(out))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, testutil.ReadIDs(t, listing))
}

func TestPeel_InputUntouched(t *testing.T) {
	g := writeGraph(t, 12, wheel(12))
	before := testutil.ReadIDs(t, vertex.AdjName(g.base))

	_, err := Peel(context.Background(), nil, Config{Base: g.base, Out: g.base + "-peeled", MaxDegree: 1})
	require.NoError(t, err)
	assert.Equal(t, before, testutil.ReadIDs(t, vertex.AdjName(g.base)))
}

func TestPeel_Errors(t *testing.T) {
	g := writeGraph(t, 12, wheel(12))
	ctx := context.Background()

	_, err := Peel(ctx, nil, Config{Base: g.base, Out: g.base + "-peeled"})
	assert.ErrorIs(t, err, ErrNoCap)

	_, err = Peel(ctx, nil, Config{Base: g.base, Out: g.base, MaxDegree: 1})
	assert.ErrorIs(t, err, ErrSameGraph)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Peel(canceled, nil, Config{Base: g.base, Out: g.base + "-peeled", MaxDegree: 1})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = Peel(ctx, nil, Config{Base: filepath.Join(t.TempDir(), "missing"), Out: g.base + "-peeled", MaxDegree: 1})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPeel_RenameFailureCleansUp(t *testing.T) {
	g := writeGraph(t, 12, wheel(12))
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule(TempSuffix, fs.Fault{FailAfterBytes: -1, FailOnRename: true})

	out := g.base + "-peeled"
	_, err := Peel(context.Background(), ffs, Config{Base: g.base, Out: out, MaxDegree: 1})
	assert.ErrorIs(t, err, fs.ErrInjected)

	for _, name := range []string{vertex.AdjName(out + TempSuffix), vertex.DegName(out + TempSuffix)} {
		_, err := os.Stat(name)
		assert.ErrorIs(t, err, os.ErrNotExist, name)
	}
}
