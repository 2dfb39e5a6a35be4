package mgt

import (
	"errors"
	"math"

	"github.com/hupe1980/trilist/internal/vertex"
)

// ErrMaxDegreeExceeded is returned when a vertex has more neighbors than
// Config.MaxDegree.
var ErrMaxDegreeExceeded = errors.New("mgt: vertex degree exceeds configured maximum")

const (
	// fixedWords covers counters and small scratch not otherwise accounted.
	fixedWords = 100
	// indexSlotWords is the index cost of one window vertex, on top of its
	// average degree worth of edge slots.
	indexSlotWords = 2
)

// Config configures one engine instance.
type Config struct {
	// Base is the graph base name (Base.adj, Base.deg).
	Base string
	// MaxDegree bounds the neighbor scratch buffers.
	MaxDegree vertex.ID
	// MemoryBytes is the engine's memory budget.
	MemoryBytes uint64
	// AvgDegree estimates the average out-degree of the scanned range.
	// Non-finite or non-positive values are treated as 1.
	AvgDegree float64
	// Output is the triangle file to write. Empty disables listing.
	Output string
	// BufferSize is the block size of every file buffer, in IDs.
	// Defaults to vertex.DefaultBufferWords.
	BufferSize int
}

func (c Config) withDefaults() Config {
	if c.BufferSize <= 0 {
		c.BufferSize = vertex.DefaultBufferWords
	}
	if math.IsNaN(c.AvgDegree) || math.IsInf(c.AvgDegree, 0) || c.AvgDegree <= 0 {
		c.AvgDegree = 1
	}
	return c
}

// Sizing is the outcome of splitting a memory budget.
type Sizing struct {
	// Index is the number of window vertices.
	Index uint64
	// Edges is the capacity of the edge buffer.
	Edges uint64
}

// Size splits the memory budget of c between the window index and the edge
// buffer.
func Size(c Config) Sizing {
	c = c.withDefaults()
	buf := uint64(c.BufferSize)
	maxDeg := uint64(c.MaxDegree)

	total := c.MemoryBytes / vertex.Width
	// scanner block + its degree window + phase reader + neighbor scratch
	overhead := 2*buf + buf + 2*maxDeg + fixedWords
	if c.Output != "" {
		overhead += buf + maxDeg
	}

	var remaining uint64
	if overhead < total {
		remaining = total - overhead
	}

	index := uint64(float64(remaining) / (c.AvgDegree + indexSlotWords))
	if index == 0 {
		index = 1
	}
	edges := uint64(c.AvgDegree * float64(index))
	if edges == 0 {
		edges = 1
	}
	return Sizing{Index: index, Edges: edges}
}
