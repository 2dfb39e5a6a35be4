package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver exports pipeline events as Prometheus metrics.
type PrometheusObserver struct {
	chunkLatency *prometheus.HistogramVec
	chunkEdges   prometheus.Counter
	triangles    prometheus.Counter
	phases       prometheus.Counter
	memoryWait   prometheus.Histogram
	transferred  *prometheus.CounterVec
	transfers    *prometheus.CounterVec
	jobs         *prometheus.HistogramVec
}

// NewPrometheusObserver creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		chunkLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trilist_chunk_duration_seconds",
			Help:    "Time an engine spent on one chunk",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"status"}),
		chunkEdges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trilist_chunk_edges_total",
			Help: "Edges scanned by completed chunks",
		}),
		triangles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trilist_triangles_total",
			Help: "Triangles found by completed chunks",
		}),
		phases: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trilist_phases_total",
			Help: "Window phases processed",
		}),
		memoryWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trilist_memory_wait_seconds",
			Help:    "Time workers waited for their memory budget",
			Buckets: prometheus.DefBuckets,
		}),
		transferred: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trilist_transfer_bytes_total",
			Help: "Bytes of graph and shard files transferred",
		}, []string{"direction"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trilist_transfers_total",
			Help: "File transfers",
		}, []string{"direction", "status"}),
		jobs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trilist_job_duration_seconds",
			Help:    "Round trip of a distributed job on one server",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 10),
		}, []string{"status"}),
	}

	for _, c := range []prometheus.Collector{
		o.chunkLatency, o.chunkEdges, o.triangles, o.phases,
		o.memoryWait, o.transferred, o.transfers, o.jobs,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// OnChunk implements Observer.
func (o *PrometheusObserver) OnChunk(_ int, edges, triangles uint64, phases int, d time.Duration, err error) {
	o.chunkLatency.WithLabelValues(status(err)).Observe(d.Seconds())
	if err != nil {
		return
	}
	o.chunkEdges.Add(float64(edges))
	o.triangles.Add(float64(triangles))
	o.phases.Add(float64(phases))
}

// OnMemoryWait implements Observer.
func (o *PrometheusObserver) OnMemoryWait(d time.Duration) {
	o.memoryWait.Observe(d.Seconds())
}

// OnTransfer implements Observer.
func (o *PrometheusObserver) OnTransfer(direction string, bytes int64, _ time.Duration, err error) {
	o.transferred.WithLabelValues(direction).Add(float64(bytes))
	o.transfers.WithLabelValues(direction, status(err)).Inc()
}

// OnJob implements Observer.
func (o *PrometheusObserver) OnJob(_ string, _ uint64, d time.Duration, err error) {
	o.jobs.WithLabelValues(status(err)).Observe(d.Seconds())
}
