package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "graphs")
	require.NoError(t, Default.MkdirAll(dir, 0o755))

	name := filepath.Join(dir, "g.adj")
	f, err := Create(nil, name)
	require.NoError(t, err)
	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	size, err := Size(nil, name)
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	r, err := Open(nil, name)
	require.NoError(t, err)
	buf := make([]byte, 3)
	_, err = r.ReadAt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, "llo", string(buf))
	require.NoError(t, r.Close())

	moved := filepath.Join(dir, "g-temp.adj")
	require.NoError(t, Default.Rename(name, moved))
	_, err = Size(nil, name)
	assert.ErrorIs(t, err, os.ErrNotExist)
	size, err = Size(nil, moved)
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	require.NoError(t, Default.Remove(moved))
	_, err = Size(nil, moved)
	assert.Error(t, err)
}

func TestFaultyFS(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule("broken", Fault{FailOnOpen: true})
	ffs.AddRule("short", Fault{FailAfterBytes: -1, ShortWrites: 2})
	ffs.AddRule("limited", Fault{FailAfterBytes: 4})

	_, err := Create(ffs, filepath.Join(dir, "broken.out"))
	assert.ErrorIs(t, err, ErrInjected)

	f, err := Create(ffs, filepath.Join(dir, "short.out"))
	require.NoError(t, err)
	n, err := f.Write([]byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, f.Close())

	f, err = Create(ffs, filepath.Join(dir, "limited.out"))
	require.NoError(t, err)
	_, err = f.Write([]byte("abcd"))
	require.NoError(t, err)
	_, err = f.Write([]byte("e"))
	assert.ErrorIs(t, err, ErrInjected)
	require.NoError(t, f.Close())

	assert.Equal(t, 1, ffs.Opens(filepath.Join(dir, "limited.out")))

	ffs.AddRule("pinned", Fault{FailAfterBytes: -1, FailOnRename: true})
	f, err = Create(ffs, filepath.Join(dir, "pinned.out"))
	require.NoError(t, err)
	require.NoError(t, f.Close())
	err = ffs.Rename(filepath.Join(dir, "pinned.out"), filepath.Join(dir, "moved.out"))
	assert.ErrorIs(t, err, ErrInjected)
	require.NoError(t, ffs.Rename(filepath.Join(dir, "short.out"), filepath.Join(dir, "moved.out")))
	_, err = ffs.Stat(filepath.Join(dir, "moved.out"))
	assert.NoError(t, err)
}
