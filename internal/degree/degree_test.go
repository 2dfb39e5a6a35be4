package degree

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/vertex"
	"github.com/hupe1980/trilist/testutil"
)

func writeDegrees(t *testing.T, degrees []int) string {
	t.Helper()
	adj := make([][]vertex.ID, len(degrees))
	for u, d := range degrees {
		adj[u] = make([]vertex.ID, d)
	}
	base := filepath.Join(t.TempDir(), "g")
	testutil.WriteGraph(t, base, adj)
	return vertex.DegName(base)
}

func randomDegrees(rng *testutil.RNG, n int) []int {
	degrees := make([]int, n)
	for i := range degrees {
		degrees[i] = rng.Intn(50)
	}
	degrees[n/2] = 0
	return degrees
}

func TestWindowed_RejectsTinyBuffer(t *testing.T) {
	path := writeDegrees(t, []int{1, 2})
	_, err := NewWindowed(nil, path, 1)
	assert.ErrorIs(t, err, ErrBufferTooSmall)
}

func TestLookups_MatchStoredDegrees(t *testing.T) {
	rng := testutil.NewRNG(7)
	degrees := randomDegrees(rng, 200)
	path := writeDegrees(t, degrees)

	windowed, err := NewWindowed(nil, path, 10)
	require.NoError(t, err)
	defer windowed.Close()
	direct, err := NewDirect(nil, path)
	require.NoError(t, err)
	defer direct.Close()
	mapped, err := NewMapped(path)
	require.NoError(t, err)
	defer mapped.Close()

	lookups := map[string]Lookup{"windowed": windowed, "direct": direct, "mapped": mapped}
	for name, l := range lookups {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, uint64(len(degrees)), l.GraphSize())

			for v, d := range degrees {
				assert.Equal(t, vertex.ID(d), l.Degree(vertex.ID(v)), "sequential v=%d", v)
			}
			for _, v := range rng.Perm(len(degrees)) {
				assert.Equal(t, vertex.ID(degrees[v]), l.Degree(vertex.ID(v)), "random v=%d", v)
			}
			assert.Zero(t, l.Degree(vertex.ID(len(degrees))))
			assert.Zero(t, l.Degree(vertex.ID(len(degrees)+1000)))
		})
	}
}

func TestWindowed_OddCapacityRoundsToPairs(t *testing.T) {
	path := writeDegrees(t, []int{3, 1, 4, 1, 5})
	w, err := NewWindowed(nil, path, 5)
	require.NoError(t, err)
	defer w.Close()

	low, high, ok := w.Window()
	require.True(t, ok)
	assert.Equal(t, vertex.ID(0), low)
	assert.Equal(t, vertex.ID(1), high)

	assert.Equal(t, vertex.ID(5), w.Degree(4))
	low, high, _ = w.Window()
	assert.Equal(t, vertex.ID(4), low)
	assert.Equal(t, vertex.ID(4), high)
	assert.Equal(t, vertex.ID(3), w.Degree(0))
}

func TestWindowed_SequentialScanReloadsRarely(t *testing.T) {
	degrees := make([]int, 100)
	path := writeDegrees(t, degrees)
	w, err := NewWindowed(nil, path, 20)
	require.NoError(t, err)
	defer w.Close()

	for v := range degrees {
		w.Degree(vertex.ID(v))
	}
	assert.Equal(t, uint64(10), w.Reloads())
}

func TestWindowed_EmptyFile(t *testing.T) {
	path := writeDegrees(t, nil)
	w, err := NewWindowed(nil, path, 4)
	require.NoError(t, err)
	defer w.Close()

	assert.Zero(t, w.GraphSize())
	assert.Zero(t, w.Degree(0))
	_, _, ok := w.Window()
	assert.False(t, ok)
}

func TestOpen_Policy(t *testing.T) {
	path := writeDegrees(t, []int{1, 2, 3, 4})

	l, err := Open(nil, path, 0)
	require.NoError(t, err)
	assert.IsType(t, &Windowed{}, l)
	require.NoError(t, l.Close())

	l, err = Open(nil, path, 4)
	require.NoError(t, err)
	assert.IsType(t, &Direct{}, l)
	require.NoError(t, l.Close())

	l, err = OpenShared(nil, path, 0)
	require.NoError(t, err)
	assert.IsType(t, &Mapped{}, l)
	assert.Equal(t, vertex.ID(4), l.Degree(3))
	require.NoError(t, l.Close())

	l, err = OpenShared(fs.NewFaultyFS(nil), path, 0)
	require.NoError(t, err)
	assert.IsType(t, &Direct{}, l)
	require.NoError(t, l.Close())

	n, err := GraphSize(nil, path)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)
}
