package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/hupe1980/trilist"
)

func runCount(ctx context.Context, e *env, args []string) error {
	fset := newFlagSet("count", e)
	var (
		lf  logFlags
		rf  runFlags
		buf = fset.Int("buffer", 0, "I/O buffer size in vertex IDs (default 4 MiB worth)")
		lim = fset.Uint64("memory-limit", 0, "total engine memory in MiB; engines wait for memory beyond it (0 means no limit)")
		uno = fset.String("unoriented", "", "undirected graph an oriented input was derived from, refines load balancing")
		dc  = degreeCapFlag(fset)
	)
	lf.register(fset)
	rf.register(fset)
	fset.Usage = func() {
		fmt.Fprintln(fset.Output(), "usage: trilist count [flags] input maxDeg outputFlag memoryMB instances")
		fset.PrintDefaults()
	}
	if err := parse(fset, args); err != nil {
		return err
	}
	if fset.NArg() != 5 {
		return usagef("count: want 5 arguments, got %d", fset.NArg())
	}

	input := fset.Arg(0)
	maxDeg, err := parseID("maxDeg", fset.Arg(1))
	if err != nil {
		return err
	}
	output, err := parseBool("outputFlag", fset.Arg(2))
	if err != nil {
		return err
	}
	memMiB, err := parseUint("memoryMB", fset.Arg(3))
	if err != nil {
		return err
	}
	instances, err := parseInt("instances", fset.Arg(4))
	if err != nil {
		return err
	}
	limit, err := parseID("-degree-cap", *dc)
	if err != nil {
		return err
	}
	if e.logger, err = lf.logger(e.stderr); err != nil {
		return err
	}

	s, err := openSinks(ctx, rf, e)
	if err != nil {
		return err
	}
	defer s.Close()

	graph := input
	if maxDeg == 0 {
		graph = trilist.OrientedName(input)
	}
	if err := s.begin(ctx, graph, "local", instances); err != nil {
		return err
	}

	opts := []trilist.Option{
		trilist.WithMemoryMiB(memMiB),
		trilist.WithInstances(instances),
		trilist.WithOutput(output),
		trilist.WithBufferSize(*buf),
		trilist.WithLogger(e.logger),
		trilist.WithRecorder(s.recorder()),
		trilist.WithObserver(s.observer),
		trilist.WithUnoriented(*uno),
		trilist.WithDegreeCap(limit),
	}
	if maxDeg != 0 {
		opts = append(opts, trilist.WithMaxDegree(maxDeg))
	}
	if *lim > 0 {
		opts = append(opts, trilist.WithMemoryLimitMiB(*lim))
	}

	res, err := trilist.Count(ctx, input, opts...)
	var rep *trilist.Report
	if err == nil {
		rep = res.Report()
	}
	if ferr := s.finish(ctx, rep, err); err == nil && ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	w := e.stdout
	if res.Timings.Orient > 0 {
		fmt.Fprintf(w, "Orientation took %s\n", seconds(res.Timings.Orient))
	}
	if len(res.Peeled) > 0 {
		fmt.Fprintf(w, "Peeling took %s, %d vertices peeled\n", seconds(res.Timings.Peel), len(res.Peeled))
	}
	fmt.Fprintf(w, "Load balancing took %s\n", seconds(res.Timings.Balance))
	fmt.Fprintf(w, "Calculating took %s\n", seconds(res.Timings.Count))
	fmt.Fprintf(w, "Triangle num: %d\n", res.Triangles)
	if res.Output != "" {
		fmt.Fprintf(w, "Concatenation took %s\n", seconds(res.Timings.Concatenate))
		fmt.Fprintf(w, "Triangles written to %s\n", res.Output)
	}
	fmt.Fprintf(w, "Total time %s\n", seconds(res.Elapsed))
	return nil
}

// degreeCapFlag registers -degree-cap.
func degreeCapFlag(fset *flag.FlagSet) *string {
	return fset.String("degree-cap", "0", "peel vertices whose oriented out-degree exceeds this before counting (0 disables)")
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}
