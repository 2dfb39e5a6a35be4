package cluster

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/trilist/internal/loadbalance"
	"github.com/hupe1980/trilist/internal/transport"
	"github.com/hupe1980/trilist/internal/vertex"
	"github.com/hupe1980/trilist/internal/vxio"
	"github.com/hupe1980/trilist/internal/wire"
	"github.com/hupe1980/trilist/internal/worker"
)

const mib = 1 << 20

// RemoteServer is one server taking part in a job.
type RemoteServer struct {
	// Address is host:port.
	Address   string
	MemoryMiB uint64
	Instances int
}

// MasterConfig describes a distributed job.
type MasterConfig struct {
	// Base is the oriented graph.
	Base string
	// Unoriented is the undirected graph Base was oriented from. It refines
	// the Volume cost model; empty means oriented degrees only.
	Unoriented string
	MaxDegree  vertex.ID
	Output     bool
	// MemoryMiB and Threads describe the master's own share.
	MemoryMiB  uint64
	Threads    int
	Servers    []RemoteServer
	BufferSize int
}

// RemoteResult is the reply of one server.
type RemoteResult struct {
	Server        string
	First, Count  int
	Triangles     uint64
	BytesSent     int64
	BytesReceived int64
	Elapsed       time.Duration
}

// MasterResult is the outcome of a distributed job.
type MasterResult struct {
	Triangles uint64
	Local     *worker.Result
	Remote    []RemoteResult
	Plan      *loadbalance.Plan
	// Output is the concatenated triangle file, empty without listing.
	Output  string
	Elapsed time.Duration
}

// Master coordinates one job.
type Master struct {
	cfg MasterConfig
	o   options
}

// NewMaster validates cfg.
func NewMaster(cfg MasterConfig, opts ...Option) (*Master, error) {
	total := cfg.Threads
	for _, s := range cfg.Servers {
		if s.Instances < 1 {
			return nil, fmt.Errorf("%w: server %s has %d instances", ErrNoInstances, s.Address, s.Instances)
		}
		total += s.Instances
	}
	if cfg.Threads < 0 || total == 0 {
		return nil, ErrNoInstances
	}
	return &Master{cfg: cfg, o: newOptions(opts)}, nil
}

// Instances returns the chunk count of the job.
func (m *Master) Instances() int {
	total := m.cfg.Threads
	for _, s := range m.cfg.Servers {
		total += s.Instances
	}
	return total
}

// Plan computes the Volume plan over all instances.
func (m *Master) Plan() (*loadbalance.Plan, error) {
	return loadbalance.PlanFiles(m.o.fs, loadbalance.VolumeFiles{
		Base:       m.cfg.Base,
		Unoriented: m.cfg.Unoriented,
		MemoryMiB:  m.cfg.MemoryMiB,
		Threads:    m.cfg.Threads,
		Chunks:     m.Instances(),
		Window:     m.cfg.BufferSize,
	})
}

// Run executes the job. Servers get consecutive chunk runs in the order
// they were configured, the master takes the last Threads chunks.
func (m *Master) Run(ctx context.Context) (*MasterResult, error) {
	start := time.Now()
	plan, err := m.Plan()
	if err != nil {
		return nil, fmt.Errorf("load balance: %w", err)
	}
	if m.o.logger != nil {
		st := plan.Stats()
		m.o.logger.Info("plan ready", "chunks", st.Chunks, "mean_edges", st.MeanEdges,
			"max_edges", st.MaxEdges, "imbalance", st.Imbalance, "took", time.Since(start))
	}

	res := &MasterResult{Plan: plan, Remote: make([]RemoteResult, len(m.cfg.Servers))}
	outName := ""
	if m.cfg.Output {
		outName = vertex.OutName(m.cfg.Base)
	}

	g, gctx := errgroup.WithContext(ctx)
	first := 0
	for i, srv := range m.cfg.Servers {
		i, srv, chunkFirst := i, srv, first
		first += srv.Instances
		g.Go(func() error {
			shard := ""
			if outName != "" {
				shard = vertex.ShardName(outName, i)
			}
			r, err := m.runRemote(gctx, srv, plan, chunkFirst, shard)
			if err != nil {
				return &RemoteError{Server: srv.Address, Err: err}
			}
			res.Remote[i] = r
			return nil
		})
	}
	if m.cfg.Threads > 0 {
		localFirst := first
		g.Go(func() error {
			r, err := m.runLocal(gctx, plan, localFirst, outName)
			res.Local = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range res.Remote {
		res.Triangles += r.Triangles
	}
	if res.Local != nil {
		res.Triangles += res.Local.Triangles
	}

	if outName != "" {
		shards := len(m.cfg.Servers)
		if m.cfg.Threads > 0 {
			shards++
		}
		if err := vxio.Concatenate(m.o.fs, outName, shards); err != nil {
			return nil, fmt.Errorf("concatenate output: %w", err)
		}
		if err := vxio.RemoveShards(m.o.fs, outName, shards); err != nil {
			return nil, err
		}
		res.Output = outName
	}
	res.Elapsed = time.Since(start)
	if m.o.logger != nil {
		m.o.logger.Info("job done", "triangles", res.Triangles, "servers", len(m.cfg.Servers), "elapsed", res.Elapsed)
	}
	return res, nil
}

// runLocal counts the master's share. Its pool writes one shard per chunk
// under outName-<servers>, concatenated into that name.
func (m *Master) runLocal(ctx context.Context, plan *loadbalance.Plan, first int, outName string) (*worker.Result, error) {
	prefix := ""
	if outName != "" {
		prefix = vertex.ShardName(outName, len(m.cfg.Servers))
	}
	p, err := worker.New(worker.Config{
		Base:        m.cfg.Base,
		Plan:        plan,
		First:       first,
		Count:       m.cfg.Threads,
		Threads:     m.cfg.Threads,
		MemoryBytes: m.cfg.MemoryMiB * mib,
		MaxDegree:   m.cfg.MaxDegree,
		Output:      prefix,
		BufferSize:  m.cfg.BufferSize,
	}, m.o.poolOptions()...)
	if err != nil {
		return nil, err
	}
	res, err := p.Run(ctx)
	if err != nil {
		return res, err
	}
	if prefix != "" {
		if err := vxio.Concatenate(m.o.fs, prefix, p.Shards()); err != nil {
			return res, err
		}
		if err := vxio.RemoveShards(m.o.fs, prefix, p.Shards()); err != nil {
			return res, err
		}
	}
	return res, nil
}

// assignments returns the chunks [first, first+srv.Instances) with memory
// proportional to each chunk's edges.
func assignments(plan *loadbalance.Plan, srv RemoteServer, first int) []wire.ChunkAssignment {
	low, high := plan.Span(first, srv.Instances)
	total := high - low
	out := make([]wire.ChunkAssignment, srv.Instances)
	for i := range out {
		begin, end := plan.Range(first + i)
		mem := loadbalance.MemoryShare(srv.MemoryMiB, srv.Instances, end-begin, total)
		out[i] = wire.ChunkAssignment{
			MemoryMiB: vertex.ID(min(mem, uint64(^vertex.ID(0)))),
			Low:       begin,
			High:      end,
			AvgDegree: plan.AvgDegree[first+i],
		}
	}
	return out
}

func (m *Master) runRemote(ctx context.Context, srv RemoteServer, plan *loadbalance.Plan, first int, shard string) (RemoteResult, error) {
	r := RemoteResult{Server: srv.Address, First: first, Count: srv.Instances}
	start := time.Now()

	s, err := transport.Dial(ctx, m.o.dialer, srv.Address, m.o.stream...)
	if err != nil {
		m.o.observer.OnJob(srv.Address, 0, time.Since(start), err)
		return r, err
	}
	defer s.Close()
	// unblock transfers when another part of the job fails
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	job := &wire.Job{
		MaxDegree: m.cfg.MaxDegree,
		Output:    shard != "",
		DegFile:   vertex.DegName(m.cfg.Base),
		AdjFile:   vertex.AdjName(m.cfg.Base),
		Chunks:    assignments(plan, srv, first),
	}

	sent, err := wire.WriteJob(s, m.o.fs, job)
	if err == nil {
		err = s.Flush()
	}
	m.o.observer.OnTransfer("send", sent, time.Since(start), err)
	if err != nil {
		m.o.observer.OnJob(srv.Address, 0, time.Since(start), err)
		return r, fmt.Errorf("send job: %w", err)
	}
	if m.o.logger != nil {
		m.o.logger.Info("job sent", "server", srv.Address, "chunks", srv.Instances, "bytes", sent, "took", time.Since(start))
	}

	lap := time.Now()
	tri, received, err := wire.ReadResult(s, m.o.fs, shard)
	if shard != "" {
		m.o.observer.OnTransfer("receive", received, time.Since(lap), err)
	}
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	r.Triangles = tri
	r.BytesSent = s.BytesSent()
	r.BytesReceived = s.BytesReceived()
	r.Elapsed = time.Since(start)
	m.o.observer.OnJob(srv.Address, tri, r.Elapsed, err)
	if err != nil {
		return r, fmt.Errorf("receive result: %w", err)
	}
	if m.o.logger != nil {
		m.o.logger.Info("server done", "server", srv.Address, "triangles", tri, "elapsed", r.Elapsed)
	}
	return r, nil
}
