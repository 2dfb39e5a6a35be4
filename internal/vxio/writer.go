package vxio

import (
	"errors"
	"io"

	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/vertex"
)

// ErrClosed is returned when adding to a closed Writer.
var ErrClosed = errors.New("vxio: writer is closed")

// ErrBufferTooSmall is returned when a buffer cannot hold a single ID.
var ErrBufferTooSmall = errors.New("vxio: buffer too small")

// Writer batches IDs in memory and writes them in blocks.
// Close must be called to flush the tail of the buffer.
type Writer struct {
	f      io.WriteCloser
	buf    []byte
	n      int
	words  uint64
	closed bool
}

// NewWriter wraps w with a buffer of bufferWords IDs.
func NewWriter(w io.WriteCloser, bufferWords int) (*Writer, error) {
	if bufferWords < 1 {
		return nil, ErrBufferTooSmall
	}
	return &Writer{f: w, buf: make([]byte, bufferWords*vertex.Width)}, nil
}

// Create creates name on fsys and returns a Writer over it.
func Create(fsys fs.FileSystem, name string, bufferWords int) (*Writer, error) {
	if bufferWords < 1 {
		return nil, ErrBufferTooSmall
	}
	f, err := fs.Create(fsys, name)
	if err != nil {
		return nil, err
	}
	return NewWriter(f, bufferWords)
}

// Add appends v, flushing when the buffer fills up.
func (w *Writer) Add(v vertex.ID) error {
	if w.closed {
		return ErrClosed
	}
	vertex.Put(w.buf[w.n:], v)
	w.n += vertex.Width
	w.words++
	if w.n == len(w.buf) {
		return w.Flush()
	}
	return nil
}

// AddAll appends every ID of vs.
func (w *Writer) AddAll(vs ...vertex.ID) error {
	for _, v := range vs {
		if err := w.Add(v); err != nil {
			return err
		}
	}
	return nil
}

// Words returns the number of IDs added so far.
func (w *Writer) Words() uint64 { return w.words }

// Flush writes the buffered IDs. Short writes are retried until the buffer
// is empty; a write that makes no progress is reported as io.ErrShortWrite.
func (w *Writer) Flush() error {
	total := 0
	for total < w.n {
		written, err := w.f.Write(w.buf[total:w.n])
		total += written
		if err != nil {
			w.n = copy(w.buf, w.buf[total:w.n])
			return err
		}
		if written == 0 {
			w.n = copy(w.buf, w.buf[total:w.n])
			return io.ErrShortWrite
		}
	}
	w.n = 0
	return nil
}

// Close flushes and closes the underlying file. It is idempotent.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.Flush()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	return err
}
