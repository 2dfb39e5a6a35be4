// Package inmem counts triangles with the whole graph in memory.
//
// It exists to cross-check the out-of-core engine: the graph is loaded
// through the same scanner, and each vertex's out-neighbors are marked in a
// bitset so every two-hop path u -> v -> w closes a triangle iff w is marked.
package inmem

import (
	"log/slog"
	"time"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/scan"
	"github.com/hupe1980/trilist/internal/vertex"
	"github.com/hupe1980/trilist/internal/vxio"
)

// Config configures Count.
type Config struct {
	Base string
	// Oriented keeps every edge of the file. Otherwise only edges with
	// from < to are kept, which orients an undirected graph by vertex ID.
	Oriented bool
	// Output lists the triangles to this file when not empty.
	Output     string
	BufferSize int
}

// Result is the outcome of Count.
type Result struct {
	Triangles uint64
	Vertices  uint64
	Edges     uint64
	Elapsed   time.Duration
}

type counter struct {
	cfg   Config
	graph [][]vertex.ID
	out   *vxio.Writer
	res   Result
}

func (c *counter) OverallSetUp() error { return nil }
func (c *counter) PhaseSetUp() error   { return nil }

func (c *counter) HandleEdge(from, to, fromDeg vertex.ID) scan.Verdict {
	if !c.cfg.Oriented && from >= to {
		return scan.Accept
	}
	if c.graph[from] == nil {
		c.graph[from] = make([]vertex.ID, 0, fromDeg)
	}
	c.graph[from] = append(c.graph[from], to)
	c.res.Edges++
	return scan.Accept
}

// ProcessPhase runs once, after the whole file is loaded.
func (c *counter) ProcessPhase() error {
	marks := bitset.New(uint(len(c.graph)))
	for u, nu := range c.graph {
		if len(nu) == 0 {
			continue
		}
		for _, w := range nu {
			marks.Set(uint(w))
		}
		for _, v := range nu {
			if uint64(v) >= uint64(len(c.graph)) {
				continue
			}
			for _, w := range c.graph[v] {
				if !marks.Test(uint(w)) {
					continue
				}
				c.res.Triangles++
				if c.out != nil {
					if err := c.out.AddAll(vertex.ID(u), v, w); err != nil {
						return err
					}
				}
			}
		}
		for _, w := range nu {
			marks.Clear(uint(w))
		}
	}
	return nil
}

func (c *counter) OverallTearDown() error { return nil }

// Count loads cfg.Base and counts its triangles.
func Count(fsys fs.FileSystem, cfg Config, logger *slog.Logger) (*Result, error) {
	start := time.Now()
	opts := []scan.Option{scan.WithLogger(logger)}
	if cfg.BufferSize > 0 {
		opts = append(opts, scan.WithBufferSize(cfg.BufferSize))
	}
	s, err := scan.Open(fsys, cfg.Base, opts...)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	c := &counter{cfg: cfg, graph: make([][]vertex.ID, s.GraphSize())}
	c.res.Vertices = s.GraphSize()
	if cfg.Output != "" {
		c.out, err = vxio.Create(fsys, cfg.Output, s.BufferSize())
		if err != nil {
			return nil, err
		}
	}

	err = s.Scan(0, vertex.MaxEdges, c)
	if c.out != nil {
		if cerr := c.out.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return nil, err
	}
	c.res.Elapsed = time.Since(start)
	if logger != nil {
		logger.Info("in-memory count done", "triangles", c.res.Triangles, "edges", c.res.Edges, "elapsed", c.res.Elapsed)
	}
	return &c.res, nil
}
