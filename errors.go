package trilist

import (
	"errors"

	"github.com/hupe1980/trilist/internal/cluster"
	"github.com/hupe1980/trilist/internal/degree"
	"github.com/hupe1980/trilist/internal/loadbalance"
	"github.com/hupe1980/trilist/internal/mgt"
	"github.com/hupe1980/trilist/internal/resource"
	"github.com/hupe1980/trilist/internal/scan"
	"github.com/hupe1980/trilist/internal/worker"
)

var (
	// ErrNoInstances is returned when a run has no engines to count with.
	ErrNoInstances = errors.New("trilist: instances must be positive")

	// ErrNoMemory is returned when the per-engine memory budget is zero.
	ErrNoMemory = errors.New("trilist: memory must be positive")

	// ErrMaxDegreeExceeded is returned when a neighborhood is larger than
	// the configured maximum degree.
	ErrMaxDegreeExceeded = mgt.ErrMaxDegreeExceeded

	// ErrStalled is returned when an engine cannot make progress because a
	// single vertex does not fit its memory budget.
	ErrStalled = scan.ErrStalled

	// ErrBufferTooSmall is returned for block or degree buffers below two IDs.
	ErrBufferTooSmall = degree.ErrBufferTooSmall

	// ErrInvalidPlan is returned for a chunk plan that does not cover the graph.
	ErrInvalidPlan = loadbalance.ErrInvalidPlan

	// ErrMemoryLimitExceeded is returned when one engine needs more memory
	// than the whole process limit.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded
)

// ChunkError reports the chunk an engine failed on.
//
// The underlying error can be accessed via errors.Unwrap.
type ChunkError = worker.ChunkError

// RemoteError reports the server a distributed job failed on.
//
// The underlying error can be accessed via errors.Unwrap.
type RemoteError = cluster.RemoteError
