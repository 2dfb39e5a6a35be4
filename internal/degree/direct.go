package degree

import (
	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/vertex"
)

// Direct reads every degree straight from the file.
// It is safe for concurrent use.
type Direct struct {
	f         fs.File
	graphSize uint64
}

// NewDirect opens path for direct lookups.
func NewDirect(fsys fs.FileSystem, path string) (*Direct, error) {
	f, err := fs.Open(fsys, path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Direct{f: f, graphSize: uint64(fi.Size()) / PairWidth}, nil
}

// Degree implements Lookup.
func (d *Direct) Degree(v vertex.ID) vertex.ID {
	var b [vertex.Width]byte
	n, _ := d.f.ReadAt(b[:], int64(v)*PairWidth+vertex.Width)
	if n < vertex.Width {
		return 0
	}
	return vertex.Get(b[:])
}

// GraphSize implements Lookup.
func (d *Direct) GraphSize() uint64 { return d.graphSize }

// Close implements Lookup.
func (d *Direct) Close() error { return d.f.Close() }
