package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/highdeg"
	"github.com/hupe1980/trilist/internal/prep"
	"github.com/hupe1980/trilist/internal/vertex"
)

const prepUsage = `usage:
  trilist prep parse    [flags] input output
  trilist prep undirect [flags] input output
  trilist prep orient   [flags] input output memoryMB threads
  trilist prep peel     [flags] input output maxDeg outputFlag

parse reads a text edge list (- for stdin), undirect writes the symmetric
closure of a binary graph and orient keeps every edge pointing to its
higher-degree endpoint. peel removes the vertices of an oriented graph whose
out-degree exceeds maxDeg, counting (and with outputFlag listing to
output.out) the triangles through them.`

func runPrep(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		return usagef("prep: missing mode\n\n%s", prepUsage)
	}
	mode := args[0]
	fset := newFlagSet("prep "+mode, e)
	var (
		lf  logFlags
		buf = fset.Int("buffer", 0, "I/O buffer size in vertex IDs (default 4 MiB worth)")
	)
	lf.register(fset)
	fset.Usage = func() {
		fmt.Fprintln(fset.Output(), prepUsage)
		fset.PrintDefaults()
	}
	if err := parse(fset, args[1:]); err != nil {
		return err
	}
	var err error
	if e.logger, err = lf.logger(e.stderr); err != nil {
		return err
	}
	var wopts []prep.WriterOption
	if *buf > 0 {
		wopts = append(wopts, prep.WithBufferSize(*buf))
	}

	switch mode {
	case "parse", "undirect":
		if fset.NArg() != 2 {
			return usagef("prep %s: want input and output, got %d arguments", mode, fset.NArg())
		}
		in, out := fset.Arg(0), fset.Arg(1)
		var st prep.Stats
		if mode == "parse" {
			st, err = parseFile(in, out, wopts)
		} else {
			st, err = prep.Undirect(fs.Default, in, out, wopts...)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "Vertices: %d\nEdges: %d\nMax degree: %d\n", st.Vertices, st.Edges, st.MaxDegree)
		return nil

	case "orient":
		if fset.NArg() != 4 {
			return usagef("prep orient: want input output memoryMB threads, got %d arguments", fset.NArg())
		}
		memMiB, err := parseUint("memoryMB", fset.Arg(2))
		if err != nil {
			return err
		}
		threads, err := parseInt("threads", fset.Arg(3))
		if err != nil {
			return err
		}
		maxDeg, err := prep.Orient(ctx, fs.Default, fset.Arg(0), fset.Arg(1), prep.OrientConfig{
			DegreeMiB:  memMiB,
			Threads:    threads,
			BufferSize: *buf,
			Logger:     e.logger.Logger,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "Max degree: %d\n", maxDeg)
		return nil

	case "peel":
		if fset.NArg() != 4 {
			return usagef("prep peel: want input output maxDeg outputFlag, got %d arguments", fset.NArg())
		}
		limit, err := parseID("maxDeg", fset.Arg(2))
		if err != nil {
			return err
		}
		listing, err := parseBool("outputFlag", fset.Arg(3))
		if err != nil {
			return err
		}
		cfg := highdeg.Config{
			Base:       fset.Arg(0),
			Out:        fset.Arg(1),
			MaxDegree:  limit,
			BufferSize: *buf,
			Logger:     e.logger.Logger,
		}
		if listing {
			cfg.Output = vertex.OutName(cfg.Out)
		}
		res, err := highdeg.Peel(ctx, fs.Default, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "Peeled vertices: %d\nTriangle num: %d\nMax degree: %d\n", len(res.Peeled), res.Triangles, res.MaxDegree)
		if res.Base != cfg.Out {
			fmt.Fprintf(e.stdout, "Nothing to peel, %s is unchanged\n", cfg.Base)
		}
		fmt.Fprintf(e.stdout, "Peeling took %s\n", seconds(res.Elapsed))
		return nil

	default:
		return usagef("prep: unknown mode %q\n\n%s", mode, prepUsage)
	}
}

func parseFile(in, out string, wopts []prep.WriterOption) (prep.Stats, error) {
	var r io.Reader = os.Stdin
	if in != "-" {
		f, err := os.Open(in)
		if err != nil {
			return prep.Stats{}, err
		}
		defer f.Close()
		r = f
	}
	return prep.ParseEdgeList(r, fs.Default, out, wopts...)
}
