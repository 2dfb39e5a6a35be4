package cluster

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/loadbalance"
	"github.com/hupe1980/trilist/internal/transport"
	"github.com/hupe1980/trilist/internal/vertex"
	"github.com/hupe1980/trilist/internal/vxio"
	"github.com/hupe1980/trilist/internal/wire"
	"github.com/hupe1980/trilist/internal/worker"
)

// ServerConfig configures a Server.
type ServerConfig struct {
	// Prefix names received files <Prefix>-<n>.deg and .adj for the n-th
	// connection, counted from 1. Conventionally the listening port.
	Prefix string
	// Dir is the directory received files are stored in.
	Dir string
	// Delete removes received and produced files after each job.
	Delete     bool
	BufferSize int
}

// JobStat describes one handled connection.
type JobStat struct {
	Number    int
	Base      string
	Chunks    int
	Triangles uint64
	Received  int64
	Sent      int64
	Elapsed   time.Duration
}

// Server counts the chunks masters send it.
type Server struct {
	cfg  ServerConfig
	o    options
	jobs atomic.Int64
}

// NewServer creates a server.
func NewServer(cfg ServerConfig, opts ...Option) *Server {
	return &Server{cfg: cfg, o: newOptions(opts)}
}

// Jobs returns the number of connections accepted so far.
func (s *Server) Jobs() int { return int(s.jobs.Load()) }

// Serve accepts connections on ln and handles them one after the other
// until ctx is done or ln is closed. A failed connection is logged and does
// not stop the server. Serve closes ln before returning.
func (s *Server) Serve(ctx context.Context, ln transport.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	defer ln.Close()

	if s.o.logger != nil {
		s.o.logger.Info("listening", "addr", ln.Addr().String(), "delete", s.cfg.Delete)
	}
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		n := int(s.jobs.Add(1))
		st, err := s.Handle(ctx, conn, n)
		if err != nil {
			if s.o.logger != nil {
				s.o.logger.Error("connection failed", "connection", n, "remote", conn.RemoteAddr().String(), "error", err)
			}
			continue
		}
		if s.o.logger != nil {
			s.o.logger.Info("connection done", "connection", n, "chunks", st.Chunks,
				"triangles", st.Triangles, "elapsed", st.Elapsed)
		}
	}
}

func (s *Server) base(n int) string {
	prefix := s.cfg.Prefix
	if prefix == "" {
		prefix = "trilist"
	}
	return filepath.Join(s.cfg.Dir, vertex.ShardName(prefix, n))
}

// Handle runs the job arriving on conn as connection number n and closes conn.
func (s *Server) Handle(ctx context.Context, conn net.Conn, n int) (*JobStat, error) {
	start := time.Now()
	st := &JobStat{Number: n, Base: s.base(n)}

	stream, err := transport.NewStream(ctx, conn, s.o.stream...)
	if err != nil {
		_ = conn.Close()
		return st, err
	}
	defer stream.Close()
	stop := context.AfterFunc(ctx, func() { _ = stream.Close() })
	defer stop()

	job, received, err := wire.ReadJob(stream, s.o.fs, st.Base)
	st.Received = received
	s.o.observer.OnTransfer("receive", received, time.Since(start), err)
	if s.cfg.Delete {
		defer s.cleanup(st.Base, job)
	}
	if err != nil {
		return st, fmt.Errorf("receive job: %w", err)
	}
	st.Chunks = len(job.Chunks)

	out := ""
	if job.Output {
		out = vertex.OutName(st.Base)
	}
	tri, err := s.count(ctx, st.Base, job, out)
	st.Triangles = tri
	s.o.observer.OnJob(conn.RemoteAddr().String(), tri, time.Since(start), err)
	if err != nil {
		return st, err
	}

	lap := time.Now()
	sent, err := wire.WriteResult(stream, s.o.fs, tri, out)
	if err == nil {
		err = stream.CloseWrite()
	}
	st.Sent = sent
	if out != "" {
		s.o.observer.OnTransfer("send", sent, time.Since(lap), err)
	}
	if err != nil {
		return st, fmt.Errorf("send result: %w", err)
	}
	st.Elapsed = time.Since(start)
	return st, nil
}

// jobPlan turns the assignments into a plan; they must be consecutive.
func jobPlan(chunks []wire.ChunkAssignment) (*loadbalance.Plan, []uint64, error) {
	p := &loadbalance.Plan{
		Bounds:    make([]uint64, len(chunks)+1),
		AvgDegree: make([]float64, len(chunks)),
	}
	mem := make([]uint64, len(chunks))
	for i, c := range chunks {
		if i > 0 && c.Low != chunks[i-1].High {
			return nil, nil, fmt.Errorf("%w: chunk %d starts at %d after %d", ErrNonContiguous, i, c.Low, chunks[i-1].High)
		}
		if c.High < c.Low {
			return nil, nil, fmt.Errorf("%w: chunk %d ends before it starts", ErrNonContiguous, i)
		}
		p.Bounds[i] = c.Low
		p.Bounds[i+1] = c.High
		p.AvgDegree[i] = c.AvgDegree
		mem[i] = uint64(c.MemoryMiB) * mib
	}
	return p, mem, nil
}

// count runs every chunk of job on its own goroutine.
func (s *Server) count(ctx context.Context, base string, job *wire.Job, out string) (uint64, error) {
	if len(job.Chunks) == 0 {
		if out != "" {
			return 0, vxio.ConcatenateFiles(s.o.fs, out, nil)
		}
		return 0, nil
	}
	plan, mem, err := jobPlan(job.Chunks)
	if err != nil {
		return 0, err
	}
	p, err := worker.New(worker.Config{
		Base:       base,
		Plan:       plan,
		Threads:    len(job.Chunks),
		Memory:     mem,
		MaxDegree:  job.MaxDegree,
		Output:     out,
		BufferSize: s.cfg.BufferSize,
	}, s.o.poolOptions()...)
	if err != nil {
		return 0, err
	}
	res, err := p.Run(ctx)
	if err != nil {
		return 0, err
	}
	if out != "" {
		if err := vxio.Concatenate(s.o.fs, out, p.Shards()); err != nil {
			return 0, err
		}
		if err := vxio.RemoveShards(s.o.fs, out, p.Shards()); err != nil {
			return 0, err
		}
	}
	return res.Triangles, nil
}

// cleanup removes the files of one connection. Missing files are fine.
func (s *Server) cleanup(base string, job *wire.Job) {
	fsys := fs.Or(s.o.fs)
	names := []string{vertex.DegName(base), vertex.AdjName(base), vertex.OutName(base)}
	for _, name := range names {
		_ = fsys.Remove(name)
	}
	if job != nil {
		_ = vxio.RemoveShards(s.o.fs, vertex.OutName(base), len(job.Chunks))
	}
}
