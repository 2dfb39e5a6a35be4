// Package metrics defines the observer hooks of the counting pipeline and
// in-process and Prometheus implementations.
package metrics

import (
	"sync/atomic"
	"time"
)

// Observer receives pipeline events. Implementations must be safe for
// concurrent use; pools call them from every worker goroutine.
type Observer interface {
	// OnChunk is called when an engine finishes a chunk.
	OnChunk(index int, edges, triangles uint64, phases int, duration time.Duration, err error)

	// OnMemoryWait reports how long a worker waited for its memory budget.
	OnMemoryWait(duration time.Duration)

	// OnTransfer reports a graph or shard transfer. direction is "send" or
	// "receive".
	OnTransfer(direction string, bytes int64, duration time.Duration, err error)

	// OnJob is called when a distributed job finishes on one server.
	OnJob(server string, triangles uint64, duration time.Duration, err error)
}

// NoopObserver is a no-op implementation of Observer.
type NoopObserver struct{}

func (NoopObserver) OnChunk(int, uint64, uint64, int, time.Duration, error) {}
func (NoopObserver) OnMemoryWait(time.Duration)                             {}
func (NoopObserver) OnTransfer(string, int64, time.Duration, error)         {}
func (NoopObserver) OnJob(string, uint64, time.Duration, error)             {}

// Or returns o, or NoopObserver if o is nil.
func Or(o Observer) Observer {
	if o == nil {
		return NoopObserver{}
	}
	return o
}

// BasicObserver accumulates counters in memory.
type BasicObserver struct {
	Chunks          atomic.Int64
	ChunkErrors     atomic.Int64
	ChunkEdges      atomic.Int64
	Triangles       atomic.Int64
	Phases          atomic.Int64
	ChunkNanos      atomic.Int64
	MemoryWaitNanos atomic.Int64
	BytesSent       atomic.Int64
	BytesReceived   atomic.Int64
	TransferErrors  atomic.Int64
	Jobs            atomic.Int64
	JobErrors       atomic.Int64
}

// OnChunk implements Observer.
func (b *BasicObserver) OnChunk(_ int, edges, triangles uint64, phases int, duration time.Duration, err error) {
	b.Chunks.Add(1)
	b.ChunkNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ChunkErrors.Add(1)
		return
	}
	b.ChunkEdges.Add(int64(edges))
	b.Triangles.Add(int64(triangles))
	b.Phases.Add(int64(phases))
}

// OnMemoryWait implements Observer.
func (b *BasicObserver) OnMemoryWait(duration time.Duration) {
	b.MemoryWaitNanos.Add(duration.Nanoseconds())
}

// OnTransfer implements Observer.
func (b *BasicObserver) OnTransfer(direction string, bytes int64, _ time.Duration, err error) {
	if err != nil {
		b.TransferErrors.Add(1)
	}
	switch direction {
	case "send":
		b.BytesSent.Add(bytes)
	case "receive":
		b.BytesReceived.Add(bytes)
	}
}

// OnJob implements Observer.
func (b *BasicObserver) OnJob(_ string, _ uint64, _ time.Duration, err error) {
	b.Jobs.Add(1)
	if err != nil {
		b.JobErrors.Add(1)
	}
}

// Stats is a snapshot of BasicObserver state.
type Stats struct {
	Chunks         int64
	ChunkErrors    int64
	ChunkEdges     int64
	Triangles      int64
	Phases         int64
	ChunkAvgNanos  int64
	MemoryWait     time.Duration
	BytesSent      int64
	BytesReceived  int64
	TransferErrors int64
	Jobs           int64
	JobErrors      int64
}

// Stats returns a snapshot of the current counters.
func (b *BasicObserver) Stats() Stats {
	s := Stats{
		Chunks:         b.Chunks.Load(),
		ChunkErrors:    b.ChunkErrors.Load(),
		ChunkEdges:     b.ChunkEdges.Load(),
		Triangles:      b.Triangles.Load(),
		Phases:         b.Phases.Load(),
		MemoryWait:     time.Duration(b.MemoryWaitNanos.Load()),
		BytesSent:      b.BytesSent.Load(),
		BytesReceived:  b.BytesReceived.Load(),
		TransferErrors: b.TransferErrors.Load(),
		Jobs:           b.Jobs.Load(),
		JobErrors:      b.JobErrors.Load(),
	}
	if s.Chunks > 0 {
		s.ChunkAvgNanos = b.ChunkNanos.Load() / s.Chunks
	}
	return s
}

// Multi fans events out to several observers.
type Multi []Observer

func (m Multi) OnChunk(index int, edges, triangles uint64, phases int, duration time.Duration, err error) {
	for _, o := range m {
		o.OnChunk(index, edges, triangles, phases, duration, err)
	}
}

func (m Multi) OnMemoryWait(duration time.Duration) {
	for _, o := range m {
		o.OnMemoryWait(duration)
	}
}

func (m Multi) OnTransfer(direction string, bytes int64, duration time.Duration, err error) {
	for _, o := range m {
		o.OnTransfer(direction, bytes, duration, err)
	}
}

func (m Multi) OnJob(server string, triangles uint64, duration time.Duration, err error) {
	for _, o := range m {
		o.OnJob(server, triangles, duration, err)
	}
}
