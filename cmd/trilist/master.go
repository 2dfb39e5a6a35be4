package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"time"

	"github.com/hupe1980/trilist"
	"github.com/hupe1980/trilist/internal/cluster"
	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/highdeg"
	"github.com/hupe1980/trilist/internal/transport"
	"github.com/hupe1980/trilist/internal/vxio"
)

// netFlags configure the connections between master and servers.
type netFlags struct {
	compress string
}

func (n *netFlags) register(fset *flag.FlagSet) {
	fset.StringVar(&n.compress, "compress", "none", "stream compression (none, lz4, zstd); master and servers must agree")
}

func (n *netFlags) streamOptions() ([]transport.Option, error) {
	c, err := transport.ParseCompression(n.compress)
	if err != nil {
		return nil, usagef("invalid -compress %q", n.compress)
	}
	return []transport.Option{transport.WithCompression(c)}, nil
}

// parseServers parses (ip port mem instances) groups.
func parseServers(args []string) ([]cluster.RemoteServer, error) {
	if len(args) == 0 || len(args)%4 != 0 {
		return nil, usagef("master: servers are given as groups of ip port mem instances")
	}
	servers := make([]cluster.RemoteServer, 0, len(args)/4)
	for i := 0; i < len(args); i += 4 {
		if _, err := parseUint("port", args[i+1]); err != nil {
			return nil, err
		}
		mem, err := parseUint("mem", args[i+2])
		if err != nil {
			return nil, err
		}
		instances, err := parseInt("instances", args[i+3])
		if err != nil {
			return nil, err
		}
		servers = append(servers, cluster.RemoteServer{
			Address:   net.JoinHostPort(args[i], args[i+1]),
			MemoryMiB: mem,
			Instances: instances,
		})
	}
	return servers, nil
}

func runMaster(ctx context.Context, e *env, args []string) error {
	fset := newFlagSet("master", e)
	var (
		lf  logFlags
		rf  runFlags
		nf  netFlags
		buf = fset.Int("buffer", 0, "I/O buffer size in vertex IDs (default 4 MiB worth)")
		dc  = degreeCapFlag(fset)
	)
	lf.register(fset)
	rf.register(fset)
	nf.register(fset)
	fset.Usage = func() {
		fmt.Fprintln(fset.Output(), "usage: trilist master [flags] input maxDeg memoryMB instances outputFlag (ip port mem instances)+")
		fset.PrintDefaults()
	}
	if err := parse(fset, args); err != nil {
		return err
	}
	if fset.NArg() < 9 {
		return usagef("master: want at least 9 arguments, got %d", fset.NArg())
	}

	input := fset.Arg(0)
	maxDeg, err := parseID("maxDeg", fset.Arg(1))
	if err != nil {
		return err
	}
	memMiB, err := parseUint("memoryMB", fset.Arg(2))
	if err != nil {
		return err
	}
	instances, err := parseInt("instances", fset.Arg(3))
	if err != nil {
		return err
	}
	output, err := parseBool("outputFlag", fset.Arg(4))
	if err != nil {
		return err
	}
	servers, err := parseServers(fset.Args()[5:])
	if err != nil {
		return err
	}
	limit, err := parseID("-degree-cap", *dc)
	if err != nil {
		return err
	}
	stream, err := nf.streamOptions()
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

	start := time.Now()
	base, unoriented := input, ""
	var orientTook time.Duration
	if maxDeg == 0 {
		p, err := trilist.Prepare(ctx, input,
			trilist.WithMemoryMiB(memMiB),
			trilist.WithInstances(max(instances, 1)),
			trilist.WithBufferSize(*buf),
			trilist.WithLogger(e.logger),
		)
		if err != nil {
			return err
		}
		base, unoriented, maxDeg = p.Base, input, p.MaxDegree
		orientTook = p.Elapsed
		fmt.Fprintf(e.stdout, "Orientation took %s\n", seconds(orientTook))
	}
	var peeled *trilist.Peeled
	if limit > 0 && maxDeg > limit {
		peeled, err = trilist.Peel(ctx, base, limit,
			trilist.WithOutput(output),
			trilist.WithBufferSize(*buf),
			trilist.WithLogger(e.logger),
		)
		if err != nil {
			return err
		}
		if peeled.Output != "" {
			defer func() { _ = fs.Default.Remove(peeled.Output) }()
		}
		base, maxDeg = peeled.Base, limit
		fmt.Fprintf(e.stdout, "Peeling took %s, %d vertices peeled\n", seconds(peeled.Elapsed), len(peeled.Vertices))
	}

	m, err := cluster.NewMaster(cluster.MasterConfig{
		Base:       base,
		Unoriented: unoriented,
		MaxDegree:  maxDeg,
		Output:     output,
		MemoryMiB:  memMiB,
		Threads:    instances,
		Servers:    servers,
		BufferSize: *buf,
	},
		cluster.WithLogger(e.logger.WithGraph(base).Logger),
		cluster.WithStreamOptions(stream...),
		cluster.WithObserver(s.observer),
		cluster.WithRecorder(s.recorder()),
	)
	if err != nil {
		return usagef("master: %v", err)
	}
	if err := s.begin(ctx, base, "master", m.Instances()); err != nil {
		return err
	}

	res, err := m.Run(ctx)
	if err == nil && peeled != nil {
		res.Triangles += peeled.Triangles
		if res.Output != "" {
			err = prependListing(peeled.Output, res.Output)
		}
	}
	var rep *trilist.Report
	if err != nil {
		var re *cluster.RemoteError
		if errors.As(err, &re) {
			e.logger.LogTransfer(ctx, re.Server, 0, 0, time.Since(start), re.Err)
		}
	} else {
		for _, r := range res.Remote {
			e.logger.LogTransfer(ctx, r.Server, r.BytesSent, r.BytesReceived, r.Elapsed, nil)
		}
		rep = masterReport(base, maxDeg, res, peeled, orientTook, time.Since(start))
	}
	if ferr := s.finish(ctx, rep, err); err == nil && ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	w := e.stdout
	for _, r := range res.Remote {
		fmt.Fprintf(w, "[Server %s]: %d chunks, %d triangles, calculating took %s\n",
			r.Server, r.Count, r.Triangles, seconds(r.Elapsed))
	}
	fmt.Fprintf(w, "Triangle num: %d\n", res.Triangles)
	if res.Output != "" {
		fmt.Fprintf(w, "Triangles written to %s\n", res.Output)
	}
	fmt.Fprintf(w, "Total time %s\n", seconds(time.Since(start)))
	return nil
}

// prependListing puts the triangles of the peeled vertices in front of the
// listing at dst.
func prependListing(src, dst string) error {
	tmp := dst + highdeg.TempSuffix
	if err := vxio.ConcatenateFiles(fs.Default, tmp, []string{src, dst}); err != nil {
		_ = fs.Default.Remove(tmp)
		return fmt.Errorf("concatenate output: %w", err)
	}
	return fs.Default.Rename(tmp, dst)
}

func masterReport(base string, maxDeg trilist.ID, res *cluster.MasterResult, peeled *trilist.Peeled, orient, total time.Duration) *trilist.Report {
	rep := &trilist.Report{
		Graph:     base,
		Mode:      "master",
		Triangles: res.Triangles,
		MaxDegree: uint64(maxDeg),
		Output:    res.Output,
		Plan:      trilist.NewPlanReport(res.Plan.Stats()),
		Chunks:    []trilist.ChunkReport{},
		Timings: trilist.TimingsReport{
			Orient: orient.Seconds(),
			Count:  res.Elapsed.Seconds(),
			Total:  total.Seconds(),
		},
	}
	if peeled != nil {
		rep.Peeled = trilist.PeeledReport(peeled.Vertices)
		rep.Timings.Peel = peeled.Elapsed.Seconds()
	}
	if res.Local != nil {
		rep.Chunks = trilist.NewChunkReports(res.Local.Chunks)
	}
	for _, r := range res.Remote {
		rep.Remote = append(rep.Remote, trilist.RemoteReport{
			Server:        r.Server,
			First:         r.First,
			Count:         r.Count,
			Triangles:     r.Triangles,
			BytesSent:     r.BytesSent,
			BytesReceived: r.BytesReceived,
			Seconds:       r.Elapsed.Seconds(),
		})
	}
	return rep
}
