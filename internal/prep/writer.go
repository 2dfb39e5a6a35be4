package prep

import (
	"errors"
	"fmt"

	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/vertex"
	"github.com/hupe1980/trilist/internal/vxio"
)

// ErrUnsorted is returned when edges are not grouped by ascending source.
var ErrUnsorted = errors.New("prep: edges must be grouped by ascending source vertex")

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithBufferSize sets the write buffer of both files in IDs.
func WithBufferSize(words int) WriterOption {
	return func(w *Writer) {
		if words > 0 {
			w.bufferWords = words
		}
	}
}

// WithoutFillStart drops the zero-degree pairs of the vertices before the
// first source. Used for all but the first part of a split file.
func WithoutFillStart() WriterOption {
	return func(w *Writer) {
		w.fillStart = false
	}
}

// WithoutFillEnd drops the zero-degree pairs after the last source.
func WithoutFillEnd() WriterOption {
	return func(w *Writer) {
		w.fillEnd = false
	}
}

// WithVertexCount pads the degree file to at least n vertices when filling
// the end.
func WithVertexCount(n uint64) WriterOption {
	return func(w *Writer) {
		w.vertices = n
	}
}

// Writer writes base.adj and base.deg from edges grouped by source.
type Writer struct {
	adj, deg *vxio.Writer

	bufferWords int
	fillStart   bool
	fillEnd     bool
	vertices    uint64

	started bool
	current vertex.ID
	prev    vertex.ID
	total   vertex.ID
	maxDeg  vertex.ID
	maxVx   vertex.ID
	edges   uint64
	closed  bool
}

// NewWriter creates both files of base.
func NewWriter(fsys fs.FileSystem, base string, opts ...WriterOption) (*Writer, error) {
	w := &Writer{bufferWords: vertex.DefaultBufferWords, fillStart: true, fillEnd: true}
	for _, opt := range opts {
		opt(w)
	}

	var err error
	if w.adj, err = vxio.Create(fsys, vertex.AdjName(base), w.bufferWords); err != nil {
		return nil, err
	}
	if w.deg, err = vxio.Create(fsys, vertex.DegName(base), w.bufferWords); err != nil {
		_ = w.adj.Close()
		return nil, err
	}
	return w, nil
}

// AddEdge appends from -> to. Edges of one source must be consecutive and
// sources ascending.
func (w *Writer) AddEdge(from, to vertex.ID) error {
	if w.closed {
		return vxio.ErrClosed
	}
	if w.started && from < w.current {
		return fmt.Errorf("%w: %d after %d", ErrUnsorted, from, w.current)
	}
	if err := w.adj.Add(to); err != nil {
		return err
	}
	if !w.started || from != w.current {
		if w.started {
			if err := w.writeGap(); err != nil {
				return err
			}
			w.prev = w.current + 1
		} else if w.fillStart {
			w.prev = 0
		} else {
			w.prev = from
		}
		w.started = true
		w.current = from
		w.total = 0
	}
	w.total++
	w.edges++
	w.maxDeg = max(w.maxDeg, w.total)
	w.maxVx = max(w.maxVx, from, to)
	return nil
}

// writeGap writes zero pairs for [prev, current) and the current source.
func (w *Writer) writeGap() error {
	for v := w.prev; v < w.current; v++ {
		if err := w.deg.AddAll(v, 0); err != nil {
			return err
		}
	}
	return w.deg.AddAll(w.current, w.total)
}

// MaxDegree returns the largest out-degree written so far.
func (w *Writer) MaxDegree() vertex.ID { return w.maxDeg }

// Edges returns the number of edges written so far.
func (w *Writer) Edges() uint64 { return w.edges }

// Close writes the last degree pairs and closes both files.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	err := w.finish()
	return errors.Join(err, w.adj.Close(), w.deg.Close())
}

func (w *Writer) finish() error {
	next := uint64(0)
	if w.started {
		if err := w.writeGap(); err != nil {
			return err
		}
		next = uint64(w.current) + 1
	}
	if !w.fillEnd {
		return nil
	}
	end := w.vertices
	if w.started {
		end = max(end, uint64(w.maxVx)+1)
	}
	for v := next; v < end; v++ {
		if err := w.deg.AddAll(vertex.ID(v), 0); err != nil {
			return err
		}
	}
	return nil
}
