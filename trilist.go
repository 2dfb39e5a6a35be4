package trilist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/trilist/internal/loadbalance"
	"github.com/hupe1980/trilist/internal/vertex"
	"github.com/hupe1980/trilist/internal/vxio"
	"github.com/hupe1980/trilist/internal/worker"
)

// Timings holds the duration of every step of a run.
type Timings struct {
	Orient      time.Duration
	Peel        time.Duration
	Balance     time.Duration
	Count       time.Duration
	Concatenate time.Duration
}

// Result is the outcome of Count.
type Result struct {
	// Base is the oriented graph that was counted.
	Base      string
	Triangles uint64
	MaxDegree ID
	// Peeled lists the vertices removed for exceeding WithDegreeCap. Their
	// triangles are part of Triangles.
	Peeled []ID
	// Output is the triangle listing, empty without WithOutput.
	Output string
	Plan   PlanStats
	// Chunks holds the statistics of every chunk in chunk order.
	Chunks  []ChunkStat
	Timings Timings
	Elapsed time.Duration
}

// Count counts (and with WithOutput lists) the triangles of the graph base.
//
// Without WithMaxDegree, base is treated as an undirected graph and oriented
// into OrientedName(base) first; its degrees then drive the load balancer.
// With WithDegreeCap, vertices above the cap are peeled off before counting.
// The edge range is cut into one chunk per instance with the Volume strategy
// and the chunks are counted in parallel, each by its own engine.
func Count(ctx context.Context, base string, optFns ...Option) (*Result, error) {
	o := applyOptions(optFns)
	if err := o.validate(); err != nil {
		return nil, err
	}
	log := o.logger.WithGraph(base)
	start := time.Now()

	res := &Result{Base: base, MaxDegree: o.maxDegree}
	unoriented := o.unoriented
	if o.maxDegree == 0 {
		p, err := prepare(ctx, base, o)
		if err != nil {
			return nil, err
		}
		res.Base, res.MaxDegree = p.Base, p.MaxDegree
		res.Timings.Orient = p.Elapsed
		if unoriented == "" {
			unoriented = base
		}
	}

	var peeled *Peeled
	if o.degreeCap > 0 && res.MaxDegree > o.degreeCap {
		p, err := peel(ctx, res.Base, o.degreeCap, o)
		if err != nil {
			return nil, err
		}
		peeled = p
		res.Base, res.MaxDegree = p.Base, o.degreeCap
		res.Peeled = p.Vertices
		res.Timings.Peel = p.Elapsed
		if p.Output != "" {
			defer func() { _ = o.fs.Remove(p.Output) }()
		}
	}

	lap := time.Now()
	plan, err := loadbalance.PlanFiles(o.fs, loadbalance.VolumeFiles{
		Base:       res.Base,
		Unoriented: unoriented,
		MemoryMiB:  o.memoryMiB,
		Threads:    o.instances,
		Chunks:     o.instances,
		Window:     o.bufferSize,
	})
	res.Timings.Balance = time.Since(lap)
	log.LogPhase(ctx, "load balancing", res.Timings.Balance, err)
	if err != nil {
		return nil, fmt.Errorf("load balance: %w", err)
	}
	res.Plan = plan.Stats()

	outName := ""
	if o.output {
		outName = vertex.OutName(res.Base)
	}
	pool, err := worker.New(worker.Config{
		Base:        res.Base,
		Plan:        plan,
		Threads:     o.instances,
		MemoryBytes: o.memoryMiB * mib,
		MaxDegree:   res.MaxDegree,
		Output:      outName,
		BufferSize:  o.bufferSize,
	},
		worker.WithLogger(log.Logger),
		worker.WithFileSystem(o.fs),
		worker.WithController(o.controller()),
		worker.WithRecorder(o.recorder),
		worker.WithObserver(o.observer),
	)
	if err != nil {
		return nil, err
	}

	lap = time.Now()
	counted, err := pool.Run(ctx)
	res.Timings.Count = time.Since(lap)
	if err != nil {
		var ce *ChunkError
		if errors.As(err, &ce) {
			low, high := plan.Range(ce.Index)
			log.LogChunk(ctx, ChunkStat{Index: ce.Index, Low: low, High: high}, ce.Err)
		}
		log.LogPhase(ctx, "counting", res.Timings.Count, err)
		if outName != "" {
			_ = vxio.RemoveShards(o.fs, outName, pool.Shards())
		}
		return nil, err
	}
	for _, st := range counted.Chunks {
		log.LogChunk(ctx, st, nil)
	}
	log.LogPhase(ctx, "counting", res.Timings.Count, nil)
	res.Triangles = counted.Triangles
	res.Chunks = counted.Chunks
	if peeled != nil {
		res.Triangles += peeled.Triangles
	}

	if outName != "" {
		lap = time.Now()
		var srcs []string
		if peeled != nil {
			srcs = append(srcs, peeled.Output)
		}
		for i := range pool.Shards() {
			srcs = append(srcs, vertex.ShardName(outName, i))
		}
		err := vxio.ConcatenateFiles(o.fs, outName, srcs)
		if err == nil {
			err = vxio.RemoveShards(o.fs, outName, pool.Shards())
		}
		res.Timings.Concatenate = time.Since(lap)
		log.LogPhase(ctx, "concatenation", res.Timings.Concatenate, err)
		if err != nil {
			return nil, fmt.Errorf("concatenate output: %w", err)
		}
		res.Output = outName
	}

	res.Elapsed = time.Since(start)
	log.InfoContext(ctx, "count done",
		"triangles", res.Triangles,
		"max_degree", res.MaxDegree,
		"peeled", len(res.Peeled),
		"chunks", len(res.Chunks),
		"elapsed", res.Elapsed,
	)
	return res, nil
}
