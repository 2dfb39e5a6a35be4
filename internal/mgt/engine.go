package mgt

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/intersect"
	"github.com/hupe1980/trilist/internal/scan"
	"github.com/hupe1980/trilist/internal/vertex"
	"github.com/hupe1980/trilist/internal/vxio"
)

const uninit = ^uint64(0)

// Option configures an Engine.
type Option func(*Engine)

// WithFileSystem sets the file system the engine opens its files on.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(e *Engine) {
		e.fs = fsys
	}
}

// WithLogger sets the logger for phase progress and diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// Stats describes one Run.
type Stats struct {
	Low, High uint64
	Triangles uint64
	Phases    int
	Elapsed   time.Duration
}

// Engine counts (and optionally lists) the triangles whose first edge lies in
// a range of the adjacency file. An Engine owns all of its buffers and file
// handles and is not safe for concurrent use.
type Engine struct {
	cfg    Config
	size   Sizing
	fs     fs.FileSystem
	logger *slog.Logger

	scanner   *scan.Scanner
	graphSize uint64

	// second sequential reader over the adjacency file for phase processing
	adjFile fs.File
	adj     *vxio.BlockReader
	pending []vertex.ID

	out *vxio.Writer

	nmem, nmemPlus, inter []vertex.ID

	// inds holds (degree, offset into edges) per window vertex.
	inds  []uint64
	edges []vertex.ID

	lowIndex, newLowIndex uint64
	lastFrom              vertex.ID
	curEdge               uint64

	triangles uint64
	phases    int
	started   time.Time
	lap       time.Time
}

// New opens the graph of cfg.Base and allocates the engine's buffers.
func New(cfg Config, opts ...Option) (*Engine, error) {
	cfg = cfg.withDefaults()
	e := &Engine{cfg: cfg, size: Size(cfg)}
	for _, opt := range opts {
		opt(e)
	}

	s, err := scan.Open(e.fs, cfg.Base, scan.WithBufferSize(cfg.BufferSize), scan.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	e.scanner = s
	e.graphSize = s.GraphSize()

	f, err := fs.Open(e.fs, vertex.AdjName(cfg.Base))
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	e.adjFile = f
	e.adj, err = vxio.NewBlockReader(f, 0, cfg.BufferSize)
	if err != nil {
		_ = e.Close()
		return nil, err
	}

	if cfg.Output != "" {
		e.out, err = vxio.Create(e.fs, cfg.Output, cfg.BufferSize)
		if err != nil {
			_ = e.Close()
			return nil, err
		}
		e.inter = make([]vertex.ID, cfg.MaxDegree)
	}

	e.nmem = make([]vertex.ID, cfg.MaxDegree)
	e.nmemPlus = make([]vertex.ID, cfg.MaxDegree)
	e.inds = make([]uint64, 2*e.size.Index)
	e.edges = make([]vertex.ID, e.size.Edges)
	return e, nil
}

// Sizing returns the window and edge-buffer capacities.
func (e *Engine) Sizing() Sizing { return e.size }

// Footprint returns the bytes held by the engine's buffers.
func (e *Engine) Footprint() uint64 {
	words := uint64(len(e.edges) + len(e.nmem) + len(e.nmemPlus) + len(e.inter))
	// scanner block and degree window, phase reader
	words += 3 * uint64(e.cfg.BufferSize)
	if e.out != nil {
		words += uint64(e.cfg.BufferSize)
	}
	return words*vertex.Width + uint64(len(e.inds))*8
}

// Triangles returns the triangles found so far.
func (e *Engine) Triangles() uint64 { return e.triangles }

// Run scans the edge range [low, high) and returns the triangle count.
// high may be vertex.MaxEdges.
func (e *Engine) Run(low, high uint64) (Stats, error) {
	start := time.Now()
	err := e.scanner.Scan(low, high, e)
	st := Stats{
		Low:       low,
		High:      high,
		Triangles: e.triangles,
		Phases:    e.phases,
		Elapsed:   time.Since(start),
	}
	return st, err
}

// Close flushes the output and releases all files.
func (e *Engine) Close() error {
	var errs []error
	if e.out != nil {
		errs = append(errs, e.out.Close())
	}
	if e.adjFile != nil {
		errs = append(errs, e.adjFile.Close())
	}
	if e.scanner != nil {
		errs = append(errs, e.scanner.Close())
	}
	return errors.Join(errs...)
}

func (e *Engine) validIndex(v uint64) bool {
	return e.lowIndex <= v && v < e.lowIndex+e.size.Index
}

func (e *Engine) slot(v uint64) uint64 { return 2 * (v - e.lowIndex) }

// OverallSetUp implements scan.Handler.
func (e *Engine) OverallSetUp() error {
	e.triangles = 0
	e.phases = 0
	e.newLowIndex = 0
	e.started = time.Now()
	e.lap = e.started
	return nil
}

// PhaseSetUp implements scan.Handler.
func (e *Engine) PhaseSetUp() error {
	for i := range e.inds {
		e.inds[i] = uninit
	}
	e.lastFrom = vertex.Uninit
	e.curEdge = 0
	e.lowIndex = e.newLowIndex
	return nil
}

// HandleEdge implements scan.Handler.
func (e *Engine) HandleEdge(from, to, _ vertex.ID) scan.Verdict {
	f := uint64(from)
	if !e.validIndex(f) || e.curEdge == e.size.Edges {
		e.newLowIndex = f
		return scan.Defer
	}

	i := e.slot(f)
	if from != e.lastFrom {
		e.inds[i] = 0
		e.inds[i+1] = e.curEdge
		e.lastFrom = from
	}
	e.inds[i]++
	e.edges[e.curEdge] = to
	e.curEdge++
	return scan.Accept
}

// ProcessPhase implements scan.Handler. It streams the whole adjacency file
// and intersects every vertex's neighbors with the window.
func (e *Engine) ProcessPhase() error {
	e.phases++
	if e.logger != nil {
		e.logger.Debug("mgt phase reporting", "phase", e.phases, "window", e.lowIndex, "edges", e.curEdge, "after", time.Since(e.lap))
	}
	e.lap = time.Now()

	e.adj.Seek(0)
	e.pending = e.pending[:0]

	deg := e.scanner.Degrees()
	for u := uint64(0); u < e.graphSize; u++ {
		nmem, plus, err := e.neighbors(vertex.ID(u), deg.Degree(vertex.ID(u)))
		if err != nil {
			return err
		}

		for _, v := range plus {
			i := e.slot(uint64(v))
			dg := e.inds[i]
			if dg == uninit {
				if e.logger != nil {
					e.logger.Error("mgt index entry missing", "vertex", v, "window", e.lowIndex)
				}
				continue
			}

			off := e.inds[i+1]
			list := e.edges[off : off+dg]
			var n int
			if e.out == nil {
				n = intersect.Intersect(nmem, list, nil)
			} else {
				n = intersect.Intersect(nmem, list, e.inter)
				for _, w := range e.inter[:n] {
					if err := e.out.AddAll(vertex.ID(u), v, w); err != nil {
						return fmt.Errorf("mgt: write triangles: %w", err)
					}
				}
			}
			e.triangles += uint64(n)
		}
	}

	if e.logger != nil {
		e.logger.Debug("mgt phase done", "phase", e.phases, "triangles", e.triangles, "took", time.Since(e.lap))
	}
	e.lap = time.Now()
	return nil
}

// neighbors streams the next degree IDs of the phase reader into N(u) and
// collects the ones indexed in the window into N+(u).
func (e *Engine) neighbors(u, degree vertex.ID) (nmem, plus []vertex.ID, err error) {
	if degree > e.cfg.MaxDegree {
		return nil, nil, fmt.Errorf("%w: vertex %d has degree %d, maximum is %d", ErrMaxDegreeExceeded, u, degree, e.cfg.MaxDegree)
	}

	nmem = e.nmem[:0]
	plus = e.nmemPlus[:0]
	for left := int(degree); left > 0; {
		if len(e.pending) == 0 {
			block, err := e.adj.Next(uint64(e.cfg.BufferSize))
			if err != nil {
				return nil, nil, fmt.Errorf("mgt: read adjacency: %w", err)
			}
			if len(block) == 0 {
				if e.logger != nil {
					e.logger.Error("mgt adjacency file shorter than degree sum", "vertex", u, "missing", left)
				}
				break
			}
			e.pending = block
		}

		take := min(left, len(e.pending))
		for _, to := range e.pending[:take] {
			nmem = append(nmem, to)
			if t := uint64(to); e.validIndex(t) && e.inds[e.slot(t)] != uninit {
				plus = append(plus, to)
			}
		}
		e.pending = e.pending[take:]
		left -= take
	}
	return nmem, plus, nil
}

// OverallTearDown implements scan.Handler.
func (e *Engine) OverallTearDown() error {
	if e.logger != nil {
		e.logger.Debug("mgt scan done", "triangles", e.triangles, "phases", e.phases, "elapsed", time.Since(e.started))
	}
	if e.out != nil {
		return e.out.Flush()
	}
	return nil
}
