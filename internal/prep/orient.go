package prep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/trilist/internal/degree"
	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/scan"
	"github.com/hupe1980/trilist/internal/vertex"
	"github.com/hupe1980/trilist/internal/vxio"
)

// OrientConfig configures Orient.
type OrientConfig struct {
	// DegreeMiB is the per-thread budget for holding the degree file. When
	// the whole file fits DegreeMiB*Threads (or DegreeMiB is 0) degrees are
	// served from memory, otherwise looked up on disk.
	DegreeMiB uint64
	// Threads splits the adjacency file into that many edge ranges oriented
	// in parallel and merged afterwards. Zero means one.
	Threads    int
	BufferSize int
	Logger     *slog.Logger
}

// orienter keeps an edge iff it points to the higher-degree endpoint, ties
// broken by vertex ID.
type orienter struct {
	deg degree.Lookup
	w   *Writer
	err error
}

func (o *orienter) OverallSetUp() error { return nil }
func (o *orienter) PhaseSetUp() error   { return nil }
func (o *orienter) ProcessPhase() error { return o.err }

func (o *orienter) HandleEdge(from, to, fromDeg vertex.ID) scan.Verdict {
	if o.err != nil {
		return scan.Accept
	}
	if Keep(from, to, fromDeg, o.deg.Degree(to)) {
		o.err = o.w.AddEdge(from, to)
	}
	return scan.Accept
}

func (o *orienter) OverallTearDown() error { return o.err }

// Keep reports whether orientation keeps the edge from -> to.
func Keep(from, to, fromDeg, toDeg vertex.ID) bool {
	return fromDeg < toDeg || (fromDeg == toDeg && from < to)
}

// Orient writes the oriented graph of in to out and returns the maximum
// oriented out-degree.
func Orient(ctx context.Context, fsys fs.FileSystem, in, out string, cfg OrientConfig) (vertex.ID, error) {
	threads := max(cfg.Threads, 1)
	buf := cfg.BufferSize
	if buf <= 0 {
		buf = vertex.DefaultBufferWords
	}

	degPath := vertex.DegName(in)
	graphSize, err := degree.GraphSize(fsys, degPath)
	if err != nil {
		return 0, err
	}
	budget := int(cfg.DegreeMiB * vertex.WordsPerMiB * uint64(threads))

	var deg degree.Lookup
	if threads == 1 {
		deg, err = degree.Open(fsys, degPath, budget)
	} else {
		deg, err = degree.OpenShared(fsys, degPath, budget)
	}
	if err != nil {
		return 0, err
	}
	defer deg.Close()
	if cfg.Logger != nil {
		cfg.Logger.Debug("orient degree lookup", "type", fmt.Sprintf("%T", deg), "vertices", graphSize, "threads", threads)
	}

	if threads == 1 {
		return orientRange(fsys, in, out, deg, 0, vertex.MaxEdges, buf, []WriterOption{WithBufferSize(buf), WithVertexCount(graphSize)})
	}

	adjBytes, err := fs.Size(fsys, vertex.AdjName(in))
	if err != nil {
		return 0, err
	}
	edges := uint64(adjBytes) / vertex.Width

	parts := make([]string, threads)
	maxDegs := make([]vertex.ID, threads)
	g, ctx := errgroup.WithContext(ctx)
	for i := range threads {
		parts[i] = vertex.ShardName(out, i)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			low := edges / uint64(threads) * uint64(i)
			high := edges / uint64(threads) * uint64(i+1)
			if i == threads-1 {
				high = edges
			}
			opts := []WriterOption{WithBufferSize(buf)}
			if i > 0 {
				opts = append(opts, WithoutFillStart())
			}
			// the merge pads the tail
			opts = append(opts, WithoutFillEnd())
			d, err := orientRange(fsys, in, parts[i], deg, low, high, buf, opts)
			maxDegs[i] = d
			return err
		})
	}
	err = g.Wait()
	defer removeParts(fsys, parts)
	if err != nil {
		return 0, err
	}

	adjParts := make([]string, threads)
	for i, p := range parts {
		adjParts[i] = vertex.AdjName(p)
	}
	if err := vxio.ConcatenateFiles(fsys, vertex.AdjName(out), adjParts); err != nil {
		return 0, err
	}
	merged, err := mergeDegrees(fsys, vertex.DegName(out), parts, graphSize, buf)
	if err != nil {
		return 0, err
	}
	for _, d := range maxDegs {
		merged = max(merged, d)
	}
	return merged, nil
}

func orientRange(fsys fs.FileSystem, in, out string, deg degree.Lookup, low, high uint64, buf int, opts []WriterOption) (vertex.ID, error) {
	s, err := scan.Open(fsys, in, scan.WithBufferSize(buf))
	if err != nil {
		return 0, err
	}
	defer s.Close()

	w, err := NewWriter(fsys, out, opts...)
	if err != nil {
		return 0, err
	}
	h := &orienter{deg: deg, w: w}
	err = s.Scan(low, high, h)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return w.MaxDegree(), err
}

func removeParts(fsys fs.FileSystem, parts []string) {
	for _, p := range parts {
		_ = fs.Or(fsys).Remove(vertex.AdjName(p))
		_ = fs.Or(fsys).Remove(vertex.DegName(p))
	}
}

// mergeDegrees concatenates the degree files of parts into dst. A vertex
// split across two parts has its degrees summed and missing vertices
// get zero pairs, up to at least vertices. It returns the largest merged
// degree.
func mergeDegrees(fsys fs.FileSystem, dst string, parts []string, vertices uint64, buf int) (vertex.ID, error) {
	w, err := vxio.Create(fsys, dst, buf)
	if err != nil {
		return 0, err
	}

	var (
		pending    [2]vertex.ID
		hasPending bool
		maxDeg     vertex.ID
	)
	emit := func(v, d vertex.ID) error {
		maxDeg = max(maxDeg, d)
		return w.AddAll(v, d)
	}
	err = func() error {
		for _, p := range parts {
			err := eachPair(fsys, vertex.DegName(p), buf, func(v, d vertex.ID) error {
				switch {
				case !hasPending:
					for gap := vertex.ID(0); gap < v; gap++ {
						if err := emit(gap, 0); err != nil {
							return err
						}
					}
					pending, hasPending = [2]vertex.ID{v, d}, true
					return nil
				case v == pending[0]:
					pending[1] += d
					return nil
				case v < pending[0]:
					return fmt.Errorf("%w: degree pair %d after %d", ErrUnsorted, v, pending[0])
				}
				if err := emit(pending[0], pending[1]); err != nil {
					return err
				}
				for gap := pending[0] + 1; gap < v; gap++ {
					if err := emit(gap, 0); err != nil {
						return err
					}
				}
				pending = [2]vertex.ID{v, d}
				return nil
			})
			if err != nil {
				return err
			}
		}
		next := uint64(0)
		if hasPending {
			if err := emit(pending[0], pending[1]); err != nil {
				return err
			}
			next = uint64(pending[0]) + 1
		}
		for ; next < vertices; next++ {
			if err := emit(vertex.ID(next), 0); err != nil {
				return err
			}
		}
		return nil
	}()
	return maxDeg, errors.Join(err, w.Close())
}

// eachPair calls fn for every (vertex, degree) pair of path.
func eachPair(fsys fs.FileSystem, path string, buf int, fn func(v, d vertex.ID) error) error {
	f, err := fs.Open(fsys, path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := vxio.NewBlockReader(f, 0, max(buf&^1, 2))
	if err != nil {
		return err
	}
	for {
		ids, err := r.Next(vertex.MaxEdges)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		for i := 0; i+1 < len(ids); i += 2 {
			if err := fn(ids[i], ids[i+1]); err != nil {
				return err
			}
		}
	}
}
