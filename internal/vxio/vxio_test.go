package vxio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/vertex"
)

func readAll(t *testing.T, name string) []vertex.ID {
	t.Helper()
	raw, err := os.ReadFile(name)
	require.NoError(t, err)
	require.Zero(t, len(raw)%vertex.Width)
	ids := make([]vertex.ID, len(raw)/vertex.Width)
	vertex.Decode(ids, raw)
	return ids
}

func writeIDs(t *testing.T, name string, ids ...vertex.ID) {
	t.Helper()
	w, err := Create(nil, name, 3)
	require.NoError(t, err)
	require.NoError(t, w.AddAll(ids...))
	require.NoError(t, w.Close())
}

func TestWriter(t *testing.T) {
	name := filepath.Join(t.TempDir(), "ids")
	w, err := Create(nil, name, 4)
	require.NoError(t, err)

	for i := vertex.ID(0); i < 10; i++ {
		require.NoError(t, w.Add(i))
	}
	assert.Equal(t, uint64(10), w.Words())
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Add(1), ErrClosed)

	assert.Equal(t, []vertex.ID{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, readAll(t, name))
}

func TestWriter_RetriesShortWrites(t *testing.T) {
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("short", fs.Fault{FailAfterBytes: -1, ShortWrites: 3})

	name := filepath.Join(t.TempDir(), "short")
	w, err := Create(ffs, name, 5)
	require.NoError(t, err)
	require.NoError(t, w.AddAll(7, 8, 9, 10, 11, 12, 13))
	require.NoError(t, w.Close())

	assert.Equal(t, []vertex.ID{7, 8, 9, 10, 11, 12, 13}, readAll(t, name))
}

func TestWriter_PropagatesErrors(t *testing.T) {
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("full", fs.Fault{FailAfterBytes: vertex.Width})

	w, err := Create(ffs, filepath.Join(t.TempDir(), "full"), 2)
	require.NoError(t, err)
	require.NoError(t, w.Add(1))
	assert.ErrorIs(t, w.Add(2), fs.ErrInjected)
}

func TestWriter_RejectsEmptyBuffer(t *testing.T) {
	_, err := Create(nil, filepath.Join(t.TempDir(), "x"), 0)
	assert.ErrorIs(t, err, ErrBufferTooSmall)
}

func TestBlockReader(t *testing.T) {
	name := filepath.Join(t.TempDir(), "ids")
	writeIDs(t, name, 1, 2, 3, 4, 5, 6, 7)

	f, err := fs.Open(nil, name)
	require.NoError(t, err)
	defer f.Close()

	r, err := NewBlockReader(f, 2, 2)
	require.NoError(t, err)

	var got []vertex.ID
	for {
		block, err := r.Next(vertex.MaxEdges)
		require.NoError(t, err)
		if len(block) == 0 {
			break
		}
		got = append(got, block...)
	}
	assert.Equal(t, []vertex.ID{3, 4, 5, 6, 7}, got)

	r.Seek(0)
	block, err := r.Next(1)
	require.NoError(t, err)
	assert.Equal(t, []vertex.ID{1}, block)
}

func TestConcatenate(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "g.out")

	writeIDs(t, vertex.ShardName(name, 0), 1, 2, 3)
	writeIDs(t, vertex.ShardName(name, 1))
	writeIDs(t, vertex.ShardName(name, 3), 4, 5, 6)

	require.NoError(t, Concatenate(nil, name, 4))
	assert.Equal(t, []vertex.ID{1, 2, 3, 4, 5, 6}, readAll(t, name))

	require.NoError(t, RemoveShards(nil, name, 4))
	_, err := os.Stat(vertex.ShardName(name, 0))
	assert.True(t, os.IsNotExist(err))
}

func TestConcatenate_AllEmpty(t *testing.T) {
	name := filepath.Join(t.TempDir(), "g.out")
	for i := 0; i < 3; i++ {
		writeIDs(t, vertex.ShardName(name, i))
	}

	require.NoError(t, Concatenate(nil, name, 3))
	assert.Empty(t, readAll(t, name))
}
