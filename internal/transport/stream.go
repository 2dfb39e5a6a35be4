package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/trilist/internal/resource"
)

// ErrHalfCloseUnsupported is returned by CloseWrite on connections that
// cannot shut down only their write side.
var ErrHalfCloseUnsupported = errors.New("transport: connection does not support half-close")

const defaultBufferSize = 64 * 1024

// Option configures a Stream.
type Option func(*streamOptions)

type streamOptions struct {
	compression Compression
	rc          *resource.Controller
	bufferSize  int
}

// WithCompression sets the stream codec.
func WithCompression(c Compression) Option {
	return func(o *streamOptions) {
		o.compression = c
	}
}

// WithController throttles the stream's wire bytes through rc.
func WithController(rc *resource.Controller) Option {
	return func(o *streamOptions) {
		o.rc = rc
	}
}

// WithBufferSize sets the size of the uncompressed read and write buffers.
func WithBufferSize(n int) Option {
	return func(o *streamOptions) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

type flushWriter interface {
	io.WriteCloser
	Flush() error
}

// bufferedWriter turns a bufio.Writer into a flushWriter whose Close only
// flushes.
type bufferedWriter struct{ *bufio.Writer }

func (b bufferedWriter) Close() error { return b.Flush() }

// Stream is a buffered, optionally compressed, duplex byte stream. Reads and
// writes may run on different goroutines; concurrent writers must coordinate.
type Stream struct {
	conn net.Conn
	r    io.Reader
	w    flushWriter
	zr   *zstd.Decoder

	sent, received atomic.Int64
}

// NewStream wraps conn. ctx bounds the waits of IO throttling.
func NewStream(ctx context.Context, conn net.Conn, opts ...Option) (*Stream, error) {
	o := streamOptions{bufferSize: defaultBufferSize}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Stream{conn: conn}
	var raw io.Reader = &countingReader{r: conn, n: &s.received}
	var rawW io.Writer = &countingWriter{w: conn, n: &s.sent}
	if o.rc != nil {
		raw = resource.NewRateLimitedReader(ctx, raw, o.rc)
		rawW = resource.NewRateLimitedWriter(ctx, rawW, o.rc)
	}

	switch o.compression {
	case CompressionNone:
		s.r = bufio.NewReaderSize(raw, o.bufferSize)
		s.w = bufferedWriter{bufio.NewWriterSize(rawW, o.bufferSize)}
	case CompressionLZ4:
		s.r = lz4.NewReader(raw)
		s.w = lz4.NewWriter(rawW)
	case CompressionZSTD:
		zr, err := zstd.NewReader(raw, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		zw, err := zstd.NewWriter(rawW, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
		if err != nil {
			zr.Close()
			return nil, err
		}
		s.zr, s.r, s.w = zr, zr, zw
	default:
		return nil, errors.New("transport: unsupported compression " + o.compression.String())
	}
	return s, nil
}

// Read reads decoded bytes from the peer.
func (s *Stream) Read(p []byte) (int, error) { return s.r.Read(p) }

// Write buffers p for the peer.
func (s *Stream) Write(p []byte) (int, error) { return s.w.Write(p) }

// Flush sends everything written so far. Call it before waiting for a reply.
func (s *Stream) Flush() error { return s.w.Flush() }

// CloseWrite ends the outgoing stream and half-closes the connection so the
// peer reads EOF. Reading stays possible.
func (s *Stream) CloseWrite() error {
	if err := s.w.Close(); err != nil {
		return err
	}
	hc, ok := s.conn.(interface{ CloseWrite() error })
	if !ok {
		return ErrHalfCloseUnsupported
	}
	return hc.CloseWrite()
}

// Close releases the decoder and closes the connection. Buffered output that
// was not flushed is discarded.
func (s *Stream) Close() error {
	if s.zr != nil {
		s.zr.Close()
	}
	return s.conn.Close()
}

// BytesSent returns the bytes written to the connection.
func (s *Stream) BytesSent() int64 { return s.sent.Load() }

// BytesReceived returns the bytes read from the connection.
func (s *Stream) BytesReceived() int64 { return s.received.Load() }

// RemoteAddr returns the peer address.
func (s *Stream) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }

type countingReader struct {
	r io.Reader
	n *atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

type countingWriter struct {
	w io.Writer
	n *atomic.Int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n.Add(int64(n))
	return n, err
}
