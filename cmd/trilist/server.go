package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/hupe1980/trilist/internal/cluster"
	"github.com/hupe1980/trilist/internal/resource"
	"github.com/hupe1980/trilist/internal/transport"
)

func runServer(ctx context.Context, e *env, args []string) error {
	fset := newFlagSet("server", e)
	var (
		lf      logFlags
		nf      netFlags
		dir     = fset.String("dir", ".", "directory received graphs are stored in")
		host    = fset.String("host", "", "address to listen on (default all interfaces)")
		buf     = fset.Int("buffer", 0, "I/O buffer size in vertex IDs (default 4 MiB worth)")
		lim     = fset.Uint64("memory-limit", 0, "total engine memory in MiB (0 means no limit)")
		ioRate  = fset.Int64("io-rate", 0, "transfer limit in MiB/s (0 means unlimited)")
		metrAdr = fset.String("metrics-addr", "", "serve Prometheus metrics on this address")
	)
	lf.register(fset)
	nf.register(fset)
	fset.Usage = func() {
		fmt.Fprintln(fset.Output(), "usage: trilist server [flags] port delete")
		fset.PrintDefaults()
	}
	if err := parse(fset, args); err != nil {
		return err
	}
	if fset.NArg() != 2 {
		return usagef("server: want 2 arguments, got %d", fset.NArg())
	}
	port := fset.Arg(0)
	if _, err := parseUint("port", port); err != nil {
		return err
	}
	del, err := parseBool("delete", fset.Arg(1))
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

	s, err := openSinks(ctx, runFlags{reportCodec: "json", metricsAddr: *metrAdr}, e)
	if err != nil {
		return err
	}
	defer s.Close()

	var rc *resource.Controller
	if *lim > 0 || *ioRate > 0 {
		rc = resource.NewController(resource.Config{
			MemoryLimitBytes:   int64(*lim) << 20,
			IOLimitBytesPerSec: *ioRate << 20,
		})
	}
	opts := []cluster.Option{
		cluster.WithLogger(e.logger.WithServer(net.JoinHostPort(*host, port)).Logger),
		cluster.WithStreamOptions(stream...),
		cluster.WithObserver(s.observer),
	}
	if rc != nil {
		opts = append(opts, cluster.WithController(rc))
	}
	srv := cluster.NewServer(cluster.ServerConfig{
		Prefix:     port,
		Dir:        *dir,
		Delete:     del,
		BufferSize: *buf,
	}, opts...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ln, err := transport.Listen(ctx, net.JoinHostPort(*host, port))
	if err != nil {
		return err
	}

	// A signal closes the listener; the job in flight is abandoned.
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)
	caught := make(chan syscall.Signal, 1)
	go func() {
		select {
		case sig := <-sigc:
			e.logger.Info("signal received, closing listener", "signal", sig.String())
			if num, ok := sig.(syscall.Signal); ok {
				caught <- num
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	err = srv.Serve(ctx, ln)
	select {
	case sig := <-caught:
		return &exitError{code: 128 + int(sig)}
	default:
	}
	return err
}
