package degree

import (
	"github.com/hupe1980/trilist/internal/mmap"
	"github.com/hupe1980/trilist/internal/vertex"
)

// Mapped serves degrees from a memory-mapped degree file.
// It is safe for concurrent use.
type Mapped struct {
	m    *mmap.Mapping
	data []byte
}

// NewMapped maps path.
func NewMapped(path string) (*Mapped, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	_ = m.Advise(mmap.AccessRandom)
	return &Mapped{m: m, data: m.Bytes()}, nil
}

// Degree implements Lookup.
func (d *Mapped) Degree(v vertex.ID) vertex.ID {
	off := uint64(v)*PairWidth + vertex.Width
	if off+vertex.Width > uint64(len(d.data)) {
		return 0
	}
	return vertex.Get(d.data[off:])
}

// GraphSize implements Lookup.
func (d *Mapped) GraphSize() uint64 { return uint64(len(d.data)) / PairWidth }

// Close implements Lookup.
func (d *Mapped) Close() error { return d.m.Close() }
