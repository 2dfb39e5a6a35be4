package scan

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hupe1980/trilist/internal/degree"
	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/vertex"
	"github.com/hupe1980/trilist/internal/vxio"
)

// ErrStalled is returned when a handler defers an edge right after a fresh
// phase was opened for it. Scanning further would never make progress.
var ErrStalled = errors.New("scan: handler deferred an edge in a fresh phase")

// Verdict is a handler's answer to one edge.
type Verdict int

const (
	// Accept consumes the edge; the scanner advances.
	Accept Verdict = iota
	// Defer asks the scanner to close the phase and present the edge again.
	Defer
)

func (v Verdict) String() string {
	switch v {
	case Accept:
		return "accept"
	case Defer:
		return "defer"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// Handler consumes the edges of a scan.
type Handler interface {
	OverallSetUp() error
	PhaseSetUp() error
	// HandleEdge receives the edge from -> to; fromDegree is the full degree
	// of from.
	HandleEdge(from, to, fromDegree vertex.ID) Verdict
	ProcessPhase() error
	OverallTearDown() error
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithBufferSize sets the block size in IDs. Defaults to
// vertex.DefaultBufferWords.
func WithBufferSize(words int) Option {
	return func(s *Scanner) {
		s.bufferWords = words
	}
}

// WithDegrees shares an existing degree lookup instead of opening a windowed
// one over the graph's degree file. The scanner does not close it.
func WithDegrees(l degree.Lookup) Option {
	return func(s *Scanner) {
		s.deg = l
	}
}

// WithLogger sets the logger for scan diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = l
	}
}

// Scanner streams the adjacency file of one graph. It is not safe for
// concurrent use; every worker opens its own.
type Scanner struct {
	f   fs.File
	br  *vxio.BlockReader
	deg degree.Lookup
	own bool

	bufferWords int
	graphSize   uint64
	logger      *slog.Logger
}

// Open opens the graph base (base.adj, base.deg) for scanning.
func Open(fsys fs.FileSystem, base string, opts ...Option) (*Scanner, error) {
	s := &Scanner{bufferWords: vertex.DefaultBufferWords}
	for _, opt := range opts {
		opt(s)
	}
	if s.bufferWords < 1 {
		return nil, vxio.ErrBufferTooSmall
	}

	if s.deg == nil {
		deg, err := degree.NewWindowed(fsys, vertex.DegName(base), s.bufferWords)
		if err != nil {
			return nil, err
		}
		s.deg = deg
		s.own = true
	}

	f, err := fs.Open(fsys, vertex.AdjName(base))
	if err != nil {
		s.closeDegrees()
		return nil, err
	}
	br, err := vxio.NewBlockReader(f, 0, s.bufferWords)
	if err != nil {
		_ = f.Close()
		s.closeDegrees()
		return nil, err
	}
	s.f = f
	s.br = br
	s.graphSize = s.deg.GraphSize()
	return s, nil
}

// Degrees returns the degree lookup used by the scanner.
func (s *Scanner) Degrees() degree.Lookup { return s.deg }

// GraphSize returns the number of vertices in the graph.
func (s *Scanner) GraphSize() uint64 { return s.graphSize }

// BufferSize returns the block size in IDs.
func (s *Scanner) BufferSize() int { return s.bufferWords }

// Close releases the adjacency file and, if owned, the degree lookup.
func (s *Scanner) Close() error {
	err := s.f.Close()
	if cerr := s.closeDegrees(); err == nil {
		err = cerr
	}
	return err
}

func (s *Scanner) closeDegrees() error {
	if !s.own || s.deg == nil {
		return nil
	}
	return s.deg.Close()
}

// cursor locates the source vertex of the edge at offset low and how many of
// its edges precede low.
func (s *Scanner) cursor(low uint64) (vertex.ID, vertex.ID) {
	var (
		u   uint64
		off uint64
	)
	for off <= low && u < s.graphSize {
		off += uint64(s.deg.Degree(vertex.ID(u)))
		u++
	}
	if off <= low {
		// low lies past the last edge.
		return vertex.ID(s.graphSize), 0
	}
	src := vertex.ID(u - 1)
	return src, s.deg.Degree(src) - vertex.ID(off-low)
}

// Scan presents the edges at offsets [low, high) to h. high may be
// vertex.MaxEdges to scan to the end of the file.
func (s *Scanner) Scan(low, high uint64, h Handler) error {
	if high < low {
		high = low
	}
	src, processed := s.cursor(low)
	s.br.Seek(low)
	rem := high - low

	if err := h.OverallSetUp(); err != nil {
		return err
	}
	if err := h.PhaseSetUp(); err != nil {
		return err
	}

	for rem > 0 {
		block, err := s.br.Next(rem)
		if err != nil {
			return fmt.Errorf("scan: read adjacency: %w", err)
		}
		if len(block) == 0 {
			break
		}

		for total := 0; total < len(block); {
			if uint64(src) >= s.graphSize {
				if s.logger != nil {
					s.logger.Warn("adjacency file extends past the degree file",
						"vertices", s.graphSize, "unread", len(block)-total)
				}
				return s.finish(h)
			}

			fromDeg := s.deg.Degree(src)
			from := src
			remaining := int(fromDeg - processed)
			if remaining > len(block)-total {
				remaining = len(block) - total
				processed += vertex.ID(remaining)
			} else {
				src++
				processed = 0
			}

			for _, to := range block[total : total+remaining] {
				if err := present(h, from, to, fromDeg); err != nil {
					return err
				}
			}
			total += remaining
		}
		rem -= uint64(len(block))
	}

	return s.finish(h)
}

func (s *Scanner) finish(h Handler) error {
	if err := h.ProcessPhase(); err != nil {
		return err
	}
	return h.OverallTearDown()
}

// present delivers one edge, opening new phases while h defers it.
func present(h Handler, from, to, fromDeg vertex.ID) error {
	if h.HandleEdge(from, to, fromDeg) == Accept {
		return nil
	}
	if err := h.ProcessPhase(); err != nil {
		return err
	}
	if err := h.PhaseSetUp(); err != nil {
		return err
	}
	if h.HandleEdge(from, to, fromDeg) == Accept {
		return nil
	}
	return fmt.Errorf("%w: edge %d -> %d", ErrStalled, from, to)
}
