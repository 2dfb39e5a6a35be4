package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/trilist"
	"github.com/hupe1980/trilist/blobstore"
	"github.com/hupe1980/trilist/blobstore/minio"
	s3store "github.com/hupe1980/trilist/blobstore/s3"
	"github.com/hupe1980/trilist/codec"
	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/metrics"
	"github.com/hupe1980/trilist/internal/runlog"
)

// runFlags select where the outcome of a run goes besides stdout.
type runFlags struct {
	report      string
	reportCodec string
	ledger      string
	publish     string
	metricsAddr string
}

func (r *runFlags) register(fset *flag.FlagSet) {
	fset.StringVar(&r.report, "report", "", "write a run report to this file (- for stdout)")
	fset.StringVar(&r.reportCodec, "report-codec", codec.Default.Name(), "report codec (json, sonnet)")
	fset.StringVar(&r.ledger, "ledger", "", "record the run and its chunks in this SQLite ledger")
	fset.StringVar(&r.publish, "publish", "", "publish the triangle file and report to a directory, s3://bucket/prefix or minio://host/bucket/prefix")
	fset.StringVar(&r.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
}

// sinks are the opened destinations of runFlags.
type sinks struct {
	flags    runFlags
	codec    codec.Codec
	ledger   *runlog.Ledger
	observer trilist.Observer
	metrics  *http.Server
	store    blobstore.Store
	stdout   io.Writer
	logger   *trilist.Logger
}

func openSinks(ctx context.Context, f runFlags, e *env) (*sinks, error) {
	c, ok := codec.ByName(f.reportCodec)
	if !ok {
		return nil, usagef("unknown -report-codec %q", f.reportCodec)
	}
	s := &sinks{flags: f, codec: c, stdout: e.stdout, logger: e.logger}

	if f.ledger != "" {
		l, err := runlog.Open(ctx, f.ledger)
		if err != nil {
			return nil, err
		}
		s.ledger = l
	}
	if f.metricsAddr != "" {
		if err := s.serveMetrics(f.metricsAddr); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	if f.publish != "" {
		st, err := openStore(ctx, f.publish)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("open publish target: %w", err)
		}
		s.store = st
	}
	return s, nil
}

func (s *sinks) serveMetrics(addr string) error {
	reg := prometheus.NewRegistry()
	obs, err := metrics.NewPrometheusObserver(reg)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	s.metrics = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	s.observer = obs
	go func() {
		if err := s.metrics.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server failed", "error", err)
		}
	}()
	s.logger.Info("serving metrics", "addr", ln.Addr().String())
	return nil
}

// recorder returns the ledger as a chunk recorder, nil without one.
func (s *sinks) recorder() trilist.Recorder {
	if s.ledger == nil {
		return nil
	}
	return s.ledger
}

// begin opens a ledger run.
func (s *sinks) begin(ctx context.Context, graph, mode string, chunks int) error {
	if s.ledger == nil {
		return nil
	}
	_, err := s.ledger.BeginRun(ctx, graph, mode, chunks)
	return err
}

// finish closes the ledger run and writes and publishes the report. rep is
// nil when the run failed.
func (s *sinks) finish(ctx context.Context, rep *trilist.Report, runErr error) error {
	var errs []error
	if s.ledger != nil {
		var triangles uint64
		if rep != nil {
			triangles = rep.Triangles
		}
		errs = append(errs, s.ledger.FinishRun(ctx, triangles, runErr))
	}
	if rep == nil {
		return errors.Join(errs...)
	}

	var data []byte
	if s.flags.report != "" || s.store != nil {
		b, err := rep.Encode(s.codec)
		if err != nil {
			return errors.Join(append(errs, err)...)
		}
		data = append(b, '\n')
	}
	switch s.flags.report {
	case "":
	case "-":
		_, err := s.stdout.Write(data)
		errs = append(errs, err)
	default:
		errs = append(errs, os.WriteFile(s.flags.report, data, 0o644))
	}

	if s.store != nil {
		errs = append(errs, s.publish(ctx, rep, data))
	}
	return errors.Join(errs...)
}

func (s *sinks) publish(ctx context.Context, rep *trilist.Report, report []byte) error {
	name := filepath.Base(rep.Graph)
	if rep.Output != "" {
		start := time.Now()
		n, err := blobstore.Publish(ctx, s.store, filepath.Base(rep.Output), fs.Default, rep.Output)
		if err != nil {
			return err
		}
		s.logger.Info("triangles published", "name", filepath.Base(rep.Output), "bytes", n, "took", time.Since(start))
	}
	reportName := name + ".report." + s.codec.Name()
	if err := blobstore.PublishBytes(ctx, s.store, reportName, report); err != nil {
		return err
	}
	s.logger.Info("report published", "name", reportName)
	return nil
}

// Close stops the metrics server and closes the ledger.
func (s *sinks) Close() error {
	var errs []error
	if s.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, s.metrics.Shutdown(ctx))
		cancel()
	}
	if s.ledger != nil {
		errs = append(errs, s.ledger.Close())
	}
	return errors.Join(errs...)
}

// openStore resolves a publish target. MinIO credentials come from the URL
// user info or MINIO_ACCESS_KEY and MINIO_SECRET_KEY; ?secure=true uses TLS.
func openStore(ctx context.Context, target string) (blobstore.Store, error) {
	switch {
	case strings.HasPrefix(target, "s3://"):
		bucket, prefix := splitBucket(strings.TrimPrefix(target, "s3://"))
		if bucket == "" {
			return nil, usagef("missing bucket in %q", target)
		}
		st, err := s3store.New(ctx, bucket, s3store.WithPrefix(prefix))
		if err != nil {
			return nil, err
		}
		return st, nil
	case strings.HasPrefix(target, "minio://"):
		u, err := url.Parse(target)
		if err != nil {
			return nil, usagef("invalid publish target %q", target)
		}
		bucket, prefix := splitBucket(strings.TrimPrefix(u.Path, "/"))
		if u.Host == "" || bucket == "" {
			return nil, usagef("publish target %q needs host and bucket", target)
		}
		access, secret := os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY")
		if u.User != nil {
			access = u.User.Username()
			secret, _ = u.User.Password()
		}
		st, err := minio.Dial(ctx, u.Host, access, secret, u.Query().Get("secure") == "true", bucket, prefix)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		if err := os.MkdirAll(target, 0o755); err != nil {
			return nil, err
		}
		return blobstore.NewLocalStore(target), nil
	}
}

func splitBucket(s string) (bucket, prefix string) {
	bucket, prefix, _ = strings.Cut(s, "/")
	return bucket, path.Clean("/" + prefix)[1:]
}
