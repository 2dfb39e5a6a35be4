// Package wire encodes the master/server job protocol.
//
// All integers are big-endian. Vertex IDs use the build's ID width, counts
// and bounds are 64-bit. Files travel as their length in vertex IDs followed
// by the raw file bytes.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/vertex"
)

var (
	// ErrShortFile is returned when a file transfer ends before its announced length.
	ErrShortFile = errors.New("wire: file transfer truncated")
	// ErrTooManyChunks is returned for a job announcing more chunks than MaxChunks.
	ErrTooManyChunks = errors.New("wire: too many chunks")
	// ErrUnalignedFile is returned when a file is not a whole number of vertex IDs.
	ErrUnalignedFile = errors.New("wire: file size not a multiple of the vertex width")
)

// MaxChunks bounds the chunk count a server accepts in one job.
const MaxChunks = 1 << 16

// WriteVertex writes v in network byte order.
func WriteVertex(w io.Writer, v vertex.ID) error {
	var b [vertex.Width]byte
	vertex.PutWire(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// ReadVertex reads a vertex ID in network byte order.
func ReadVertex(r io.Reader) (vertex.ID, error) {
	var b [vertex.Width]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return vertex.GetWire(b[:]), nil
}

// WriteUint64 writes u in network byte order.
func WriteUint64(w io.Writer, u uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], u)
	_, err := w.Write(b[:])
	return err
}

// ReadUint64 reads a 64-bit integer in network byte order.
func ReadUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

// WriteFloat64Bits writes the IEEE-754 bits of f as a 64-bit integer.
func WriteFloat64Bits(w io.Writer, f float64) error {
	return WriteUint64(w, math.Float64bits(f))
}

// ReadFloat64Bits reads a float written by WriteFloat64Bits.
func ReadFloat64Bits(r io.Reader) (float64, error) {
	u, err := ReadUint64(r)
	return math.Float64frombits(u), err
}

// WriteFile sends the file name and returns the bytes of payload written.
func WriteFile(w io.Writer, fsys fs.FileSystem, name string) (int64, error) {
	f, err := fs.Open(fsys, name)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	size := info.Size()
	if size%vertex.Width != 0 {
		return 0, fmt.Errorf("%w: %s has %d bytes", ErrUnalignedFile, name, size)
	}
	if err := WriteUint64(w, uint64(size)/vertex.Width); err != nil {
		return 0, err
	}
	n, err := io.CopyN(w, f, size)
	if errors.Is(err, io.EOF) {
		err = fmt.Errorf("%w: %s shrank during send", ErrShortFile, name)
	}
	return n, err
}

// ReadFile receives a file into name and returns the bytes of payload read.
// A truncated transfer leaves the partial file behind.
func ReadFile(r io.Reader, fsys fs.FileSystem, name string) (int64, error) {
	words, err := ReadUint64(r)
	if err != nil {
		return 0, err
	}
	if words > math.MaxInt64/vertex.Width {
		return 0, fmt.Errorf("%w: announced %d words", ErrShortFile, words)
	}
	size := int64(words) * vertex.Width

	f, err := fs.Create(fsys, name)
	if err != nil {
		return 0, err
	}
	n, err := io.CopyN(f, r, size)
	if errors.Is(err, io.EOF) {
		err = fmt.Errorf("%w: %s got %d of %d bytes", ErrShortFile, name, n, size)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}
