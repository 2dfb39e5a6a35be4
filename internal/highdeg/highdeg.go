package highdeg

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hupe1980/trilist/internal/degree"
	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/prep"
	"github.com/hupe1980/trilist/internal/scan"
	"github.com/hupe1980/trilist/internal/vertex"
	"github.com/hupe1980/trilist/internal/vxio"
)

// TempSuffix names the graph a peeling pass writes before it replaces Out.
const TempSuffix = "-temp"

var (
	// ErrNoCap is returned when the degree cap is zero.
	ErrNoCap = errors.New("highdeg: degree cap must be positive")
	// ErrSameGraph is returned when the peeled graph would overwrite its input.
	ErrSameGraph = errors.New("highdeg: output graph must differ from the input")
)

// Config configures Peel.
type Config struct {
	// Base is the oriented input graph. It is never modified.
	Base string
	// Out is the peeled graph. It is only written when a vertex is peeled.
	Out string
	// MaxDegree is the out-degree cap.
	MaxDegree vertex.ID
	// Output lists the triangles through peeled vertices. Empty disables
	// listing.
	Output     string
	BufferSize int
	Logger     *slog.Logger
}

// Result is the outcome of Peel.
type Result struct {
	// Base is the graph left to count: Out when a vertex was peeled, the
	// input otherwise.
	Base string
	// Peeled lists the removed vertices in ascending order.
	Peeled []vertex.ID
	// Triangles is the number of triangles through peeled vertices.
	Triangles uint64
	// MaxDegree is the largest out-degree of Base.
	MaxDegree vertex.ID
	Elapsed   time.Duration
}

// Peel removes, in ascending order, every vertex whose out-degree exceeds
// cfg.MaxDegree, counting the triangles through it first.
func Peel(ctx context.Context, fsys fs.FileSystem, cfg Config) (*Result, error) {
	if cfg.MaxDegree == 0 {
		return nil, ErrNoCap
	}
	if cfg.Out == "" || cfg.Out == cfg.Base {
		return nil, ErrSameGraph
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = vertex.DefaultBufferWords
	}
	start := time.Now()

	var out *vxio.Writer
	if cfg.Output != "" {
		w, err := vxio.Create(fsys, cfg.Output, cfg.BufferSize)
		if err != nil {
			return nil, err
		}
		out = w
	}

	res := &Result{Base: cfg.Base}
	err := peelAll(ctx, fsys, cfg, out, res)
	if out != nil {
		err = errors.Join(err, out.Close())
	}
	if err != nil {
		return nil, err
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

func peelAll(ctx context.Context, fsys fs.FileSystem, cfg Config, out *vxio.Writer, res *Result) error {
	temp := cfg.Out + TempSuffix
	// Out-degrees never grow, so vertices below next stay within the cap.
	var next uint64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s, err := scan.Open(fsys, res.Base, scan.WithBufferSize(cfg.BufferSize), scan.WithLogger(cfg.Logger))
		if err != nil {
			return err
		}
		h, deg, maxDeg, found := findHigh(s.Degrees(), next, cfg.MaxDegree)
		if !found {
			if len(res.Peeled) == 0 {
				res.MaxDegree = maxDeg
			}
			return s.Close()
		}

		p, err := peelVertex(fsys, s, h, temp, cfg.BufferSize, out)
		err = errors.Join(err, s.Close())
		if err == nil {
			err = replace(fsys, temp, cfg.Out)
		}
		if err != nil {
			removeGraph(fsys, temp)
			return err
		}

		res.Base = cfg.Out
		res.Peeled = append(res.Peeled, h)
		res.Triangles += p.triangles
		res.MaxDegree = p.w.MaxDegree()
		if cfg.Logger != nil {
			cfg.Logger.Info("vertex peeled",
				"vertex", h,
				"out_degree", deg,
				"neighbors", p.neighbors,
				"triangles", p.triangles,
				"edges_left", p.w.Edges(),
			)
		}
		next = uint64(h) + 1
	}
}

// findHigh returns the first vertex from start on whose degree exceeds
// limit, and the largest degree seen before it.
func findHigh(deg degree.Lookup, start uint64, limit vertex.ID) (v, d, seen vertex.ID, found bool) {
	for u := start; u < deg.GraphSize(); u++ {
		x := deg.Degree(vertex.ID(u))
		if x > limit {
			return vertex.ID(u), x, seen, true
		}
		seen = max(seen, x)
	}
	return 0, 0, seen, false
}

// peelVertex streams the graph of s twice: once for the neighborhood of h,
// once to write the graph without h to temp and report the triangles
// through h.
func peelVertex(fsys fs.FileSystem, s *scan.Scanner, h vertex.ID, temp string, buf int, out *vxio.Writer) (*peeler, error) {
	c := &collector{h: h, nbrs: newSet()}
	if err := s.Scan(0, vertex.MaxEdges, c); err != nil {
		return nil, err
	}

	w, err := prep.NewWriter(fsys, temp, prep.WithBufferSize(buf), prep.WithVertexCount(s.GraphSize()))
	if err != nil {
		return nil, err
	}
	p := &peeler{h: h, nbrs: c.nbrs, neighbors: c.nbrs.GetCardinality(), w: w, out: out}
	err = s.Scan(0, vertex.MaxEdges, p)
	return p, errors.Join(err, w.Close())
}

// replace moves the graph temp over base.
func replace(fsys fs.FileSystem, temp, base string) error {
	fsys = fs.Or(fsys)
	if err := fsys.Rename(vertex.AdjName(temp), vertex.AdjName(base)); err != nil {
		return err
	}
	return fsys.Rename(vertex.DegName(temp), vertex.DegName(base))
}

func removeGraph(fsys fs.FileSystem, base string) {
	_ = fs.Or(fsys).Remove(vertex.AdjName(base))
	_ = fs.Or(fsys).Remove(vertex.DegName(base))
}

// collector gathers the in- and out-neighbors of h.
type collector struct {
	h    vertex.ID
	nbrs *set
}

func (c *collector) OverallSetUp() error    { return nil }
func (c *collector) PhaseSetUp() error      { return nil }
func (c *collector) ProcessPhase() error    { return nil }
func (c *collector) OverallTearDown() error { return nil }

func (c *collector) HandleEdge(from, to, _ vertex.ID) scan.Verdict {
	switch c.h {
	case from:
		add(c.nbrs, to)
	case to:
		add(c.nbrs, from)
	}
	return scan.Accept
}

// peeler copies every edge not incident to h. An edge between two
// neighbors of h closes a triangle with it.
type peeler struct {
	h         vertex.ID
	nbrs      *set
	neighbors uint64
	w         *prep.Writer
	out       *vxio.Writer
	triangles uint64
	err       error
}

func (p *peeler) OverallSetUp() error    { return nil }
func (p *peeler) PhaseSetUp() error      { return nil }
func (p *peeler) ProcessPhase() error    { return p.err }
func (p *peeler) OverallTearDown() error { return p.err }

func (p *peeler) HandleEdge(from, to, _ vertex.ID) scan.Verdict {
	if p.err != nil || from == p.h || to == p.h {
		return scan.Accept
	}
	if p.err = p.w.AddEdge(from, to); p.err != nil {
		return scan.Accept
	}
	if has(p.nbrs, from) && has(p.nbrs, to) {
		p.triangles++
		if p.out != nil {
			p.err = p.out.AddAll(p.h, from, to)
		}
	}
	return scan.Accept
}
