package main

import (
	"context"
	"fmt"

	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/inmem"
)

// runVerify counts triangles with the in-memory reference counter. It is
// meant for graphs small enough to hold and cross-checks count.
func runVerify(_ context.Context, e *env, args []string) error {
	fset := newFlagSet("verify", e)
	var (
		lf         logFlags
		undirected = fset.Bool("undirected", false, "input is undirected; orient edges by vertex ID")
		output     = fset.String("output", "", "list the triangles to this file")
		buf        = fset.Int("buffer", 0, "I/O buffer size in vertex IDs (default 4 MiB worth)")
		expect     = fset.Int64("expect", -1, "fail unless this many triangles are found")
	)
	lf.register(fset)
	fset.Usage = func() {
		fmt.Fprintln(fset.Output(), "usage: trilist verify [flags] input")
		fset.PrintDefaults()
	}
	if err := parse(fset, args); err != nil {
		return err
	}
	if fset.NArg() != 1 {
		return usagef("verify: want 1 argument, got %d", fset.NArg())
	}
	var err error
	if e.logger, err = lf.logger(e.stderr); err != nil {
		return err
	}

	res, err := inmem.Count(fs.Default, inmem.Config{
		Base:       fset.Arg(0),
		Oriented:   !*undirected,
		Output:     *output,
		BufferSize: *buf,
	}, e.logger.Logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Vertices: %d\nEdges: %d\nTotal number of triangles %d\nTook %s\n",
		res.Vertices, res.Edges, res.Triangles, seconds(res.Elapsed))
	if *expect >= 0 && uint64(*expect) != res.Triangles {
		return fmt.Errorf("found %d triangles, expected %d", res.Triangles, *expect)
	}
	return nil
}
