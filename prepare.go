package trilist

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/trilist/internal/highdeg"
	"github.com/hupe1980/trilist/internal/prep"
	"github.com/hupe1980/trilist/internal/vertex"
)

// Prepared is the outcome of Prepare.
type Prepared struct {
	// Base is the oriented graph.
	Base      string
	MaxDegree ID
	Elapsed   time.Duration
}

// Prepare orients the undirected graph input into OrientedName(input): an
// edge u->v is kept iff deg(u) < deg(v), ties broken by ID. The degree file
// is held in memory when it fits WithMemoryMiB per instance, and the edge
// range is oriented by WithInstances goroutines.
func Prepare(ctx context.Context, input string, optFns ...Option) (*Prepared, error) {
	return prepare(ctx, input, applyOptions(optFns))
}

func prepare(ctx context.Context, input string, o options) (*Prepared, error) {
	start := time.Now()
	out := OrientedName(input)
	maxDeg, err := prep.Orient(ctx, o.fs, input, out, prep.OrientConfig{
		DegreeMiB:  o.memoryMiB,
		Threads:    o.instances,
		BufferSize: o.bufferSize,
		Logger:     o.logger.Logger,
	})
	took := time.Since(start)
	o.logger.LogPhase(ctx, "orientation", took, err)
	if err != nil {
		return nil, fmt.Errorf("orient %s: %w", input, err)
	}
	o.logger.InfoContext(ctx, "graph oriented", "graph", out, "max_degree", maxDeg)
	return &Prepared{Base: out, MaxDegree: maxDeg, Elapsed: took}, nil
}

// Peeled is the outcome of Peel.
type Peeled struct {
	// Base is the graph left to count, base itself when nothing was peeled.
	Base string
	// Vertices lists the peeled vertices in ascending order.
	Vertices []ID
	// Triangles is the number of triangles through peeled vertices.
	Triangles uint64
	// MaxDegree is the largest out-degree of Base.
	MaxDegree ID
	// Output lists the triangles through peeled vertices, empty without
	// WithOutput.
	Output  string
	Elapsed time.Duration
}

// Peel removes every vertex of the oriented graph base whose out-degree
// exceeds limit, writing what is left to PeeledName(base). The triangles
// through removed vertices are counted, and listed with WithOutput.
func Peel(ctx context.Context, base string, limit ID, optFns ...Option) (*Peeled, error) {
	return peel(ctx, base, limit, applyOptions(optFns))
}

func peel(ctx context.Context, base string, limit ID, o options) (*Peeled, error) {
	out := PeeledName(base)
	listing := ""
	if o.output {
		listing = vertex.OutName(base + "-high")
	}
	res, err := highdeg.Peel(ctx, o.fs, highdeg.Config{
		Base:       base,
		Out:        out,
		MaxDegree:  limit,
		Output:     listing,
		BufferSize: o.bufferSize,
		Logger:     o.logger.Logger,
	})
	var took time.Duration
	if res != nil {
		took = res.Elapsed
	}
	o.logger.LogPhase(ctx, "peeling", took, err)
	if err != nil {
		return nil, fmt.Errorf("peel %s: %w", base, err)
	}
	o.logger.InfoContext(ctx, "graph peeled",
		"graph", res.Base,
		"peeled", len(res.Peeled),
		"triangles", res.Triangles,
		"max_degree", res.MaxDegree,
	)
	return &Peeled{
		Base:      res.Base,
		Vertices:  res.Peeled,
		Triangles: res.Triangles,
		MaxDegree: res.MaxDegree,
		Output:    listing,
		Elapsed:   res.Elapsed,
	}, nil
}

// Imported is the outcome of ImportEdgeList.
type Imported struct {
	Base      string
	Vertices  uint64
	Edges     uint64
	MaxDegree ID
}

// ImportEdgeList parses a text edge list ("u v" per line, # and % comments)
// and writes its undirected closure to base, ready for Count. The neighbor
// sets are held in memory.
func ImportEdgeList(ctx context.Context, r io.Reader, base string, optFns ...Option) (*Imported, error) {
	o := applyOptions(optFns)
	start := time.Now()

	var wopts []prep.WriterOption
	if o.bufferSize > 0 {
		wopts = append(wopts, prep.WithBufferSize(o.bufferSize))
	}

	directed := base + "-directed"
	if _, err := prep.ParseEdgeList(r, o.fs, directed, wopts...); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	defer func() {
		_ = o.fs.Remove(vertex.AdjName(directed))
		_ = o.fs.Remove(vertex.DegName(directed))
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st, err := prep.Undirect(o.fs, directed, base, wopts...)
	o.logger.LogPhase(ctx, "import", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("undirect: %w", err)
	}
	return &Imported{Base: base, Vertices: st.Vertices, Edges: st.Edges, MaxDegree: st.MaxDegree}, nil
}
