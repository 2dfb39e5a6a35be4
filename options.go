package trilist

import (
	"runtime"

	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/metrics"
	"github.com/hupe1980/trilist/internal/resource"
	"github.com/hupe1980/trilist/internal/worker"
)

// DefaultMemoryMiB is the per-engine memory budget used when WithMemoryMiB is
// not given.
const DefaultMemoryMiB = 256

type options struct {
	memoryMiB  uint64
	instances  int
	output     bool
	maxDegree  ID
	degreeCap  ID
	unoriented string
	bufferSize int
	limitMiB   uint64
	logger     *Logger
	fs         fs.FileSystem
	recorder   worker.Recorder
	observer   metrics.Observer
}

// Option configures Count, Prepare and ImportEdgeList.
type Option func(*options)

// WithMemoryMiB sets the memory budget of one engine in MiB. Chunks with more
// edges than average get a proportionally larger share.
func WithMemoryMiB(mib uint64) Option {
	return func(o *options) {
		o.memoryMiB = mib
	}
}

// WithInstances sets the number of engines (and chunks) run in parallel.
// Defaults to runtime.NumCPU().
func WithInstances(n int) Option {
	return func(o *options) {
		o.instances = n
	}
}

// WithOutput enables listing: every triangle is written to the graph's
// .out file.
func WithOutput(enabled bool) Option {
	return func(o *options) {
		o.output = enabled
	}
}

// WithMaxDegree declares the input as already oriented with the given
// maximum out-degree. Without it (or with 0), Count orients the input into
// OrientedName(base) first.
func WithMaxDegree(d ID) Option {
	return func(o *options) {
		o.maxDegree = d
	}
}

// WithDegreeCap bounds the out-degree the engines are sized for. Vertices of
// the oriented graph above the cap are peeled into PeeledName(base) before
// counting and their triangles are counted by the peeling pass. Zero means
// no cap.
func WithDegreeCap(d ID) Option {
	return func(o *options) {
		o.degreeCap = d
	}
}

// WithUnoriented names the undirected graph an oriented input was built
// from. Its degrees refine the load balancer's cost model.
func WithUnoriented(base string) Option {
	return func(o *options) {
		o.unoriented = base
	}
}

// WithBufferSize sets the block buffer size in IDs used by scanners and
// writers. Defaults to 4 MiB of IDs.
func WithBufferSize(words int) Option {
	return func(o *options) {
		o.bufferSize = words
	}
}

// WithMemoryLimitMiB caps the memory of all engines together. Engines wait
// for memory instead of overcommitting. Zero means no limit.
func WithMemoryLimitMiB(mib uint64) Option {
	return func(o *options) {
		o.limitMiB = mib
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := trilist.NewJSONLogger(slog.LevelInfo)
//	res, _ := trilist.Count(ctx, "graph", trilist.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithFileSystem sets the file system graph files are read from and written to.
func WithFileSystem(fsys FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithRecorder sets a recorder every completed chunk is reported to.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// WithObserver sets the metrics observer.
//
// Example with BasicObserver:
//
//	obs := &trilist.BasicObserver{}
//	res, _ := trilist.Count(ctx, "graph", trilist.WithObserver(obs))
//	fmt.Println(obs.Stats().Chunks)
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		memoryMiB: DefaultMemoryMiB,
		instances: runtime.NumCPU(),
		logger:    NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	o.fs = fs.Or(o.fs)
	o.observer = metrics.Or(o.observer)
	return o
}

func (o options) validate() error {
	if o.instances < 1 {
		return ErrNoInstances
	}
	if o.memoryMiB == 0 {
		return ErrNoMemory
	}
	return nil
}

func (o options) controller() *resource.Controller {
	if o.limitMiB == 0 {
		return nil
	}
	return resource.NewController(resource.Config{
		MemoryLimitBytes: int64(o.limitMiB * mib),
	})
}
