package vxio

import (
	"errors"
	"io"

	"github.com/hupe1980/trilist/internal/vertex"
)

// BlockReader reads IDs sequentially from an io.ReaderAt.
type BlockReader struct {
	r     io.ReaderAt
	off   int64
	raw   []byte
	block []vertex.ID
}

// NewBlockReader creates a reader with blocks of bufferWords IDs starting at
// ID offset start.
func NewBlockReader(r io.ReaderAt, start uint64, bufferWords int) (*BlockReader, error) {
	if bufferWords < 1 {
		return nil, ErrBufferTooSmall
	}
	return &BlockReader{
		r:     r,
		off:   int64(start) * vertex.Width,
		raw:   make([]byte, bufferWords*vertex.Width),
		block: make([]vertex.ID, bufferWords),
	}, nil
}

// Seek moves the reader to ID offset pos.
func (b *BlockReader) Seek(pos uint64) { b.off = int64(pos) * vertex.Width }

// Next reads up to max IDs (bounded by the block size). An empty result
// with a nil error means end of stream. The returned slice is reused by the
// next call.
func (b *BlockReader) Next(max uint64) ([]vertex.ID, error) {
	want := len(b.block)
	if max < uint64(want) {
		want = int(max)
	}
	if want == 0 {
		return nil, nil
	}
	n, err := b.r.ReadAt(b.raw[:want*vertex.Width], b.off)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	words := n / vertex.Width
	b.off += int64(words) * vertex.Width
	vertex.Decode(b.block[:words], b.raw[:words*vertex.Width])
	return b.block[:words], nil
}
