package trilist

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/vertex"
	"github.com/hupe1980/trilist/testutil"
)

type graphFixture struct {
	dir       string
	base      string
	edges     []testutil.Edge
	triangles []testutil.Triangle
}

func newGraph(t *testing.T, n int, p float64, seed int64) graphFixture {
	t.Helper()
	rng := testutil.NewRNG(seed)
	edges := rng.RandomGraph(n, p)
	dir := t.TempDir()
	base := filepath.Join(dir, "g")
	testutil.WriteGraph(t, base, testutil.Undirected(n, edges))
	return graphFixture{dir: dir, base: base, edges: edges, triangles: testutil.BruteForceTriangles(edges)}
}

func small(extra ...Option) []Option {
	return append([]Option{WithMemoryMiB(1), WithBufferSize(64)}, extra...)
}

func TestCount_OrientsAndCounts(t *testing.T) {
	for _, instances := range []int{1, 2, 4, 7} {
		g := newGraph(t, 150, 0.08, int64(instances))

		res, err := Count(context.Background(), g.base, small(WithInstances(instances))...)
		require.NoError(t, err)

		assert.Equal(t, uint64(len(g.triangles)), res.Triangles, "instances=%d", instances)
		assert.Equal(t, OrientedName(g.base), res.Base)
		assert.Positive(t, res.MaxDegree)
		assert.Len(t, res.Chunks, instances)
		assert.Equal(t, instances, res.Plan.Chunks)
		assert.Empty(t, res.Output)

		var sum uint64
		for i, st := range res.Chunks {
			assert.Equal(t, i, st.Index)
			sum += st.Triangles
		}
		assert.Equal(t, res.Triangles, sum)

		_, err = os.Stat(vertex.AdjName(OrientedName(g.base)))
		require.NoError(t, err)
	}
}

func TestCount_OrientedWithOutput(t *testing.T) {
	rng := testutil.NewRNG(42)
	edges := rng.RandomGraph(120, 0.1)
	ori := testutil.Orient(testutil.Undirected(120, edges))
	dir := t.TempDir()
	base := filepath.Join(dir, "o")
	testutil.WriteGraph(t, base, ori)

	res, err := Count(context.Background(), base, small(
		WithInstances(3),
		WithMaxDegree(testutil.MaxDegree(ori)),
		WithOutput(true),
	)...)
	require.NoError(t, err)

	want := testutil.BruteForceTriangles(edges)
	assert.Equal(t, uint64(len(want)), res.Triangles)
	assert.Equal(t, base, res.Base)
	require.Equal(t, vertex.OutName(base), res.Output)

	got := testutil.ReadTriangles(t, res.Output)
	testutil.SortTriangles(got)
	assert.Equal(t, want, got)

	for i := 0; i < 3; i++ {
		_, err := os.Stat(vertex.ShardName(res.Output, i))
		assert.True(t, errors.Is(err, os.ErrNotExist), "shard %d left behind", i)
	}
	assert.Zero(t, res.Timings.Orient)
}

func TestCount_EmptyGraph(t *testing.T) {
	base := filepath.Join(t.TempDir(), "e")
	testutil.WriteGraph(t, base, make([][]vertex.ID, 4))

	res, err := Count(context.Background(), base, small(WithInstances(2), WithMaxDegree(1), WithOutput(true))...)
	require.NoError(t, err)
	assert.Zero(t, res.Triangles)

	info, err := os.Stat(res.Output)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestCount_Errors(t *testing.T) {
	ctx := context.Background()
	g := newGraph(t, 20, 0.3, 1)

	_, err := Count(ctx, g.base, WithInstances(0))
	assert.ErrorIs(t, err, ErrNoInstances)

	_, err = Count(ctx, g.base, WithMemoryMiB(0))
	assert.ErrorIs(t, err, ErrNoMemory)

	_, err = Count(ctx, filepath.Join(g.dir, "missing"), small()...)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCount_MaxDegreeTooSmall(t *testing.T) {
	rng := testutil.NewRNG(9)
	ori := testutil.Orient(testutil.Undirected(60, rng.RandomGraph(60, 0.3)))
	base := filepath.Join(t.TempDir(), "o")
	testutil.WriteGraph(t, base, ori)

	var logs bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Count(context.Background(), base, small(
		WithInstances(2),
		WithMaxDegree(1),
		WithOutput(true),
		WithLogger(logger),
	)...)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxDegreeExceeded)

	var ce *ChunkError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, logs.String(), "chunk failed")

	for i := 0; i < 2; i++ {
		_, err := os.Stat(vertex.ShardName(vertex.OutName(base), i))
		assert.True(t, errors.Is(err, os.ErrNotExist))
	}
}

func TestCount_DegreeCapPeels(t *testing.T) {
	rng := testutil.NewRNG(9)
	edges := rng.RandomGraph(60, 0.3)
	ori := testutil.Orient(testutil.Undirected(60, edges))
	base := filepath.Join(t.TempDir(), "o")
	testutil.WriteGraph(t, base, ori)
	want := testutil.BruteForceTriangles(edges)

	for _, limit := range []ID{1, 3, testutil.MaxDegree(ori) / 2} {
		res, err := Count(context.Background(), base, small(
			WithInstances(3),
			WithMaxDegree(testutil.MaxDegree(ori)),
			WithDegreeCap(limit),
			WithOutput(true),
		)...)
		require.NoError(t, err, "cap=%d", limit)
		assert.Equal(t, uint64(len(want)), res.Triangles, "cap=%d", limit)
		assert.NotEmpty(t, res.Peeled)
		assert.Equal(t, PeeledName(base), res.Base)
		assert.Equal(t, limit, res.MaxDegree)
		assert.Equal(t, vertex.OutName(PeeledName(base)), res.Output)

		got := testutil.ReadTriangles(t, res.Output)
		testutil.SortTriangles(got)
		assert.Equal(t, want, got, "cap=%d", limit)

		_, err = os.Stat(vertex.OutName(base + "-high"))
		assert.ErrorIs(t, err, os.ErrNotExist)

		rep := res.Report()
		assert.Len(t, rep.Peeled, len(res.Peeled))
	}
}

func TestCount_DegreeCapAboveMaxDegree(t *testing.T) {
	g := newGraph(t, 50, 0.2, 13)
	res, err := Count(context.Background(), g.base, small(WithInstances(2), WithDegreeCap(1000))...)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(g.triangles)), res.Triangles)
	assert.Empty(t, res.Peeled)
	assert.Equal(t, OrientedName(g.base), res.Base)

	_, err = os.Stat(vertex.AdjName(PeeledName(OrientedName(g.base))))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPeel(t *testing.T) {
	rng := testutil.NewRNG(17)
	edges := rng.RandomGraph(40, 0.3)
	ori := testutil.Orient(testutil.Undirected(40, edges))
	base := filepath.Join(t.TempDir(), "o")
	testutil.WriteGraph(t, base, ori)

	p, err := Peel(context.Background(), base, 2, WithBufferSize(16))
	require.NoError(t, err)
	assert.Equal(t, PeeledName(base), p.Base)
	assert.LessOrEqual(t, p.MaxDegree, ID(2))
	assert.NotEmpty(t, p.Vertices)
	assert.Empty(t, p.Output)

	rest, err := Count(context.Background(), p.Base, small(WithInstances(2), WithMaxDegree(2))...)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(testutil.BruteForceTriangles(edges))), p.Triangles+rest.Triangles)

	_, err = Peel(context.Background(), base, 0)
	assert.Error(t, err)
}

type memRecorder struct {
	mu    sync.Mutex
	stats []ChunkStat
}

func (r *memRecorder) RecordChunk(_ context.Context, st ChunkStat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = append(r.stats, st)
	return nil
}

func TestCount_RecorderAndObserver(t *testing.T) {
	g := newGraph(t, 80, 0.15, 5)
	rec := &memRecorder{}
	obs := &BasicObserver{}

	res, err := Count(context.Background(), g.base, small(
		WithInstances(4),
		WithRecorder(rec),
		WithObserver(obs),
		WithMemoryLimitMiB(2),
	)...)
	require.NoError(t, err)

	assert.Len(t, rec.stats, 4)
	st := obs.Stats()
	assert.Equal(t, int64(4), st.Chunks)
	assert.Equal(t, int64(res.Triangles), st.Triangles)
}

func TestCount_FileSystem(t *testing.T) {
	g := newGraph(t, 40, 0.2, 8)
	faulty := fs.NewFaultyFS(fs.Default)

	res, err := Count(context.Background(), g.base, small(WithInstances(2), WithFileSystem(faulty))...)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(g.triangles)), res.Triangles)
	assert.Positive(t, faulty.Opens(vertex.AdjName(OrientedName(g.base))))
}

func TestPrepare(t *testing.T) {
	g := newGraph(t, 70, 0.12, 21)

	p, err := Prepare(context.Background(), g.base, WithInstances(3), WithBufferSize(32))
	require.NoError(t, err)
	assert.Equal(t, OrientedName(g.base), p.Base)

	ori := testutil.Orient(testutil.Undirected(70, g.edges))
	assert.Equal(t, testutil.MaxDegree(ori), p.MaxDegree)

	var want []vertex.ID
	for _, list := range ori {
		want = append(want, list...)
	}
	assert.Equal(t, want, testutil.ReadIDs(t, vertex.AdjName(p.Base)))
}

func TestImportEdgeList(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "k4")
	input := "# K4 plus a pendant vertex\n0 1\n0 2\n0 3\n1 2\n1 3\n2 3\n3 4\n2 2\n1 0\n"

	imp, err := ImportEdgeList(context.Background(), strings.NewReader(input), base)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), imp.Vertices)
	assert.Equal(t, uint64(14), imp.Edges)
	assert.Equal(t, ID(4), imp.MaxDegree)

	_, err = os.Stat(vertex.AdjName(base + "-directed"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	res, err := Count(context.Background(), base, small(WithInstances(2))...)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), res.Triangles)
}

func TestImportEdgeList_ParseError(t *testing.T) {
	base := filepath.Join(t.TempDir(), "bad")
	_, err := ImportEdgeList(context.Background(), strings.NewReader("0 1\nx y\n"), base)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}
