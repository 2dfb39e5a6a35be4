package cluster

import (
	"log/slog"

	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/metrics"
	"github.com/hupe1980/trilist/internal/resource"
	"github.com/hupe1980/trilist/internal/transport"
	"github.com/hupe1980/trilist/internal/worker"
)

// Option configures a Master or a Server.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	fs       fs.FileSystem
	dialer   transport.Dialer
	stream   []transport.Option
	rc       *resource.Controller
	observer metrics.Observer
	recorder worker.Recorder
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	o.observer = metrics.Or(o.observer)
	return o
}

func (o options) poolOptions() []worker.Option {
	return []worker.Option{
		worker.WithLogger(o.logger),
		worker.WithFileSystem(o.fs),
		worker.WithController(o.rc),
		worker.WithObserver(o.observer),
		worker.WithRecorder(o.recorder),
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithFileSystem sets the file system graph and output files live on.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithDialer sets the dialer a Master connects to servers with.
func WithDialer(d transport.Dialer) Option {
	return func(o *options) {
		o.dialer = d
	}
}

// WithStreamOptions sets the options of every connection, e.g. compression.
// Master and servers must use the same compression.
func WithStreamOptions(opts ...transport.Option) Option {
	return func(o *options) {
		o.stream = append(o.stream, opts...)
	}
}

// WithController sets the resource controller for engine admission and
// transfer throttling.
func WithController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
		o.stream = append(o.stream, transport.WithController(rc))
	}
}

// WithObserver sets the metrics observer.
func WithObserver(obs metrics.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithRecorder sets the recorder local chunks are reported to.
func WithRecorder(r worker.Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}
