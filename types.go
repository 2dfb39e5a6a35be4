package trilist

import (
	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/loadbalance"
	"github.com/hupe1980/trilist/internal/metrics"
	"github.com/hupe1980/trilist/internal/vertex"
	"github.com/hupe1980/trilist/internal/worker"
)

const mib = 1 << 20

// ID is a vertex ID: uint32, or uint64 with the vx64 build tag.
type ID = vertex.ID

// FileSystem abstracts the file operations of a run.
type FileSystem = fs.FileSystem

// ChunkStat describes one completed chunk.
type ChunkStat = worker.ChunkStat

// Recorder persists chunk statistics, e.g. to a run ledger.
type Recorder = worker.Recorder

// Observer receives engine, memory and transfer metrics.
type Observer = metrics.Observer

// BasicObserver collects metrics in memory with atomic counters.
type BasicObserver = metrics.BasicObserver

// PlanStats summarizes the chunk sizes of a load balancing plan.
type PlanStats = loadbalance.Stats

// OrientedSuffix is appended to an input name to form the oriented graph.
const OrientedSuffix = "-oriented"

// OrientedName returns the name Count and Prepare orient input into.
func OrientedName(input string) string { return input + OrientedSuffix }

// PeeledSuffix is appended to an oriented graph to form the graph left after
// peeling.
const PeeledSuffix = "-peeled"

// PeeledName returns the name Peel writes the peeled graph of base to.
func PeeledName(base string) string { return base + PeeledSuffix }
