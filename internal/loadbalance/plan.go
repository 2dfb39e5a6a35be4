package loadbalance

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNoChunks is returned when a strategy is asked for zero chunks.
	ErrNoChunks = errors.New("loadbalance: chunk count must be positive")
	// ErrNoMemory is returned when Volume has no memory or threads to size
	// its intervals with.
	ErrNoMemory = errors.New("loadbalance: memory and threads must be positive")
	// ErrInvalidPlan is returned by Plan.Validate.
	ErrInvalidPlan = errors.New("loadbalance: invalid plan")
)

// Strategy computes a chunk plan.
type Strategy interface {
	Balance() (*Plan, error)
}

// Plan is a chunk-boundary plan in edge-index units.
type Plan struct {
	// Bounds holds Len()+1 non-decreasing offsets; chunk i is
	// [Bounds[i], Bounds[i+1]).
	Bounds []uint64
	// AvgDegree holds one average-degree estimate per chunk.
	AvgDegree []float64
}

// Len returns the number of chunks.
func (p *Plan) Len() int { return len(p.AvgDegree) }

// Edges returns the edge count covered by the plan.
func (p *Plan) Edges() uint64 { return p.Bounds[len(p.Bounds)-1] }

// Range returns the edge range of chunk i.
func (p *Plan) Range(i int) (low, high uint64) {
	return p.Bounds[i], p.Bounds[i+1]
}

// Span returns the combined edge range of chunks [first, first+count).
func (p *Plan) Span(first, count int) (low, high uint64) {
	return p.Bounds[first], p.Bounds[first+count]
}

// Validate checks the plan invariants against the expected edge count.
func (p *Plan) Validate(edges uint64) error {
	if len(p.Bounds) != len(p.AvgDegree)+1 || len(p.AvgDegree) == 0 {
		return fmt.Errorf("%w: %d bounds for %d chunks", ErrInvalidPlan, len(p.Bounds), len(p.AvgDegree))
	}
	if p.Bounds[0] != 0 {
		return fmt.Errorf("%w: first bound is %d", ErrInvalidPlan, p.Bounds[0])
	}
	if last := p.Edges(); last != edges {
		return fmt.Errorf("%w: last bound is %d, want %d", ErrInvalidPlan, last, edges)
	}
	for i := 1; i < len(p.Bounds); i++ {
		if p.Bounds[i] < p.Bounds[i-1] {
			return fmt.Errorf("%w: bound %d decreases (%d < %d)", ErrInvalidPlan, i, p.Bounds[i], p.Bounds[i-1])
		}
	}
	return nil
}

// Stats summarizes chunk sizes.
type Stats struct {
	Chunks      int
	MeanEdges   float64
	StdDevEdges float64
	MaxEdges    float64
	// Imbalance is MaxEdges / MeanEdges (1 is perfectly even).
	Imbalance float64
}

// Stats returns chunk-size statistics of the plan.
func (p *Plan) Stats() Stats {
	sizes := make([]float64, p.Len())
	for i := range sizes {
		lo, hi := p.Range(i)
		sizes[i] = float64(hi - lo)
	}
	s := Stats{Chunks: len(sizes)}
	if len(sizes) == 0 {
		return s
	}
	s.MeanEdges = stat.Mean(sizes, nil)
	if len(sizes) > 1 {
		s.StdDevEdges = stat.StdDev(sizes, nil)
	}
	s.MaxEdges = floats.Max(sizes)
	if s.MeanEdges > 0 {
		s.Imbalance = s.MaxEdges / s.MeanEdges
	}
	return s
}

func newPlan(chunks int) *Plan {
	return &Plan{
		Bounds:    make([]uint64, chunks+1),
		AvgDegree: make([]float64, chunks),
	}
}

// even cuts edges into chunks equal ranges, the remainder going to the last.
func even(edges, vertices uint64, chunks int) (*Plan, error) {
	if chunks < 1 {
		return nil, ErrNoChunks
	}
	p := newPlan(chunks)
	diff := edges / uint64(chunks)
	var avg float64
	if vertices > 0 {
		avg = float64(edges) / float64(vertices)
	}
	for i := 0; i < chunks; i++ {
		p.Bounds[i] = uint64(i) * diff
		p.AvgDegree[i] = avg
	}
	p.Bounds[chunks] = edges
	return p, nil
}
