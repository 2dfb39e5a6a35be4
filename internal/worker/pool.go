package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/loadbalance"
	"github.com/hupe1980/trilist/internal/metrics"
	"github.com/hupe1980/trilist/internal/mgt"
	"github.com/hupe1980/trilist/internal/resource"
	"github.com/hupe1980/trilist/internal/vertex"
)

var (
	// ErrNoThreads is returned when a pool has no workers.
	ErrNoThreads = errors.New("worker: thread count must be positive")
	// ErrChunkRange is returned when the chunk sub-range is outside the plan.
	ErrChunkRange = errors.New("worker: chunk range outside plan")
)

// ChunkError reports the failure of one chunk.
type ChunkError struct {
	Index int
	Err   error
}

func (e *ChunkError) Error() string { return fmt.Sprintf("chunk %d: %v", e.Index, e.Err) }

func (e *ChunkError) Unwrap() error { return e.Err }

// ChunkStat describes one completed chunk.
type ChunkStat struct {
	Index       int
	Low, High   uint64
	MemoryBytes uint64
	AvgDegree   float64
	Triangles   uint64
	Phases      int
	Elapsed     time.Duration
	Shard       string
}

// Recorder persists chunk statistics.
type Recorder interface {
	RecordChunk(ctx context.Context, st ChunkStat) error
}

// Config configures a Pool.
type Config struct {
	// Base is the oriented graph base name.
	Base string
	Plan *loadbalance.Plan
	// First and Count select the chunks [First, First+Count) of Plan.
	// Count 0 means every chunk from First on.
	First, Count int
	Threads      int
	// MemoryBytes is the budget of one engine for an average chunk; a chunk
	// gets MemoryBytes*Count*edges(chunk)/edges(range).
	MemoryBytes uint64
	// Memory, when set, holds the budget of every chunk of the range in
	// order and replaces the proportional share.
	Memory    []uint64
	MaxDegree vertex.ID
	// Output is the shard prefix; chunk First+i writes Output-i.
	// Empty disables listing.
	Output     string
	BufferSize int
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) {
		p.logger = l
	}
}

// WithFileSystem sets the file system engines open their files on.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(p *Pool) {
		p.fs = fsys
	}
}

// WithController sets the resource controller engines reserve memory and
// worker slots from.
func WithController(rc *resource.Controller) Option {
	return func(p *Pool) {
		p.rc = rc
	}
}

// WithRecorder sets the recorder completed chunks are reported to.
func WithRecorder(r Recorder) Option {
	return func(p *Pool) {
		p.recorder = r
	}
}

// WithObserver sets the metrics observer.
func WithObserver(o metrics.Observer) Option {
	return func(p *Pool) {
		p.observer = o
	}
}

// Pool executes a chunk sub-range of a plan.
type Pool struct {
	cfg      Config
	logger   *slog.Logger
	fs       fs.FileSystem
	rc       *resource.Controller
	recorder Recorder
	observer metrics.Observer

	spanLow, spanHigh uint64

	chunkMu sync.Mutex
	next    int

	countMu   sync.Mutex
	triangles uint64

	statsMu sync.Mutex
	stats   []ChunkStat
}

// New validates cfg and creates a pool.
func New(cfg Config, opts ...Option) (*Pool, error) {
	if cfg.Threads < 1 {
		return nil, ErrNoThreads
	}
	if cfg.Plan == nil {
		return nil, fmt.Errorf("%w: no plan", ErrChunkRange)
	}
	if cfg.Count == 0 {
		cfg.Count = cfg.Plan.Len() - cfg.First
	}
	if cfg.First < 0 || cfg.Count < 0 || cfg.First+cfg.Count > cfg.Plan.Len() {
		return nil, fmt.Errorf("%w: [%d, %d) of %d chunks", ErrChunkRange, cfg.First, cfg.First+cfg.Count, cfg.Plan.Len())
	}
	if cfg.Memory != nil && len(cfg.Memory) != cfg.Count {
		return nil, fmt.Errorf("%w: %d memory budgets for %d chunks", ErrChunkRange, len(cfg.Memory), cfg.Count)
	}

	p := &Pool{cfg: cfg, observer: metrics.NoopObserver{}}
	for _, opt := range opts {
		opt(p)
	}
	p.observer = metrics.Or(p.observer)
	p.spanLow, p.spanHigh = cfg.Plan.Span(cfg.First, cfg.Count)
	return p, nil
}

// Result is the outcome of a pool run.
type Result struct {
	Triangles uint64
	// Chunks holds the statistics of every completed chunk in chunk order.
	Chunks []ChunkStat
}

// Shards returns the number of output shards the pool writes.
func (p *Pool) Shards() int { return p.cfg.Count }

// ChunkMemory returns the memory budget of the engine running [low, high).
func (p *Pool) ChunkMemory(low, high uint64) uint64 {
	return loadbalance.MemoryShare(p.cfg.MemoryBytes, p.cfg.Count, high-low, p.spanHigh-p.spanLow)
}

// Run executes every chunk and returns the summed triangle count. The first
// failing chunk cancels the remaining ones; running engines finish their
// current chunk.
func (p *Pool) Run(ctx context.Context) (*Result, error) {
	g, ctx := errgroup.WithContext(ctx)
	for range p.cfg.Threads {
		g.Go(func() error {
			return p.work(ctx)
		})
	}
	err := g.Wait()

	p.countMu.Lock()
	triangles := p.triangles
	p.countMu.Unlock()

	p.statsMu.Lock()
	stats := make([]ChunkStat, len(p.stats))
	copy(stats, p.stats)
	p.statsMu.Unlock()
	slices.SortFunc(stats, func(a, b ChunkStat) int { return a.Index - b.Index })

	return &Result{Triangles: triangles, Chunks: stats}, err
}

// claim returns the next unclaimed chunk index.
func (p *Pool) claim() (int, bool) {
	p.chunkMu.Lock()
	defer p.chunkMu.Unlock()
	if p.next == p.cfg.Count {
		return 0, false
	}
	i := p.next
	p.next++
	return p.cfg.First + i, true
}

func (p *Pool) work(ctx context.Context) error {
	var local uint64
	defer func() {
		p.countMu.Lock()
		p.triangles += local
		p.countMu.Unlock()
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		index, ok := p.claim()
		if !ok {
			return nil
		}
		st, err := p.runChunk(ctx, index)
		p.observer.OnChunk(index, st.High-st.Low, st.Triangles, st.Phases, st.Elapsed, err)
		if err != nil {
			return &ChunkError{Index: index, Err: err}
		}
		local += st.Triangles

		if p.logger != nil {
			p.logger.Info("chunk done", "chunk", index, "low", st.Low, "high", st.High,
				"triangles", st.Triangles, "phases", st.Phases, "elapsed", st.Elapsed)
		}
		if p.recorder != nil {
			if err := p.recorder.RecordChunk(ctx, st); err != nil {
				return &ChunkError{Index: index, Err: fmt.Errorf("record: %w", err)}
			}
		}
		p.statsMu.Lock()
		p.stats = append(p.stats, st)
		p.statsMu.Unlock()
	}
}

func (p *Pool) runChunk(ctx context.Context, index int) (ChunkStat, error) {
	low, high := p.cfg.Plan.Range(index)
	st := ChunkStat{
		Index:       index,
		Low:         low,
		High:        high,
		MemoryBytes: p.ChunkMemory(low, high),
		AvgDegree:   p.cfg.Plan.AvgDegree[index],
	}
	if p.cfg.Memory != nil {
		st.MemoryBytes = p.cfg.Memory[index-p.cfg.First]
	}
	if p.cfg.Output != "" {
		st.Shard = vertex.ShardName(p.cfg.Output, index-p.cfg.First)
	}

	if err := p.rc.AcquireWorker(ctx); err != nil {
		return st, err
	}
	defer p.rc.ReleaseWorker()

	reserve := int64(st.MemoryBytes)
	if limit := p.rc.MemoryLimit(); limit > 0 && reserve > limit {
		reserve = limit
	}
	waited := time.Now()
	if err := p.rc.AcquireMemory(ctx, reserve); err != nil {
		return st, err
	}
	defer p.rc.ReleaseMemory(reserve)
	p.observer.OnMemoryWait(time.Since(waited))

	e, err := mgt.New(mgt.Config{
		Base:        p.cfg.Base,
		MaxDegree:   p.cfg.MaxDegree,
		MemoryBytes: st.MemoryBytes,
		AvgDegree:   st.AvgDegree,
		Output:      st.Shard,
		BufferSize:  p.cfg.BufferSize,
	}, mgt.WithFileSystem(p.fs), mgt.WithLogger(p.logger))
	if err != nil {
		return st, err
	}

	run, err := e.Run(low, high)
	if cerr := e.Close(); err == nil {
		err = cerr
	}
	st.Triangles = run.Triangles
	st.Phases = run.Phases
	st.Elapsed = run.Elapsed
	return st, err
}
