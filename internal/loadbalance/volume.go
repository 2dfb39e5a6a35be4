package loadbalance

import (
	"github.com/hupe1980/trilist/internal/degree"
	"github.com/hupe1980/trilist/internal/vertex"
)

// intervalEntryBytes is the bookkeeping cost of one interval (a cumulative
// cost and a vertex ID).
const intervalEntryBytes = 8 + vertex.Width

// Volume balances chunks by estimated work. Every oriented edge of vertex v
// costs unoriented(v) - oriented(v) + 1. Costs are accumulated over fixed
// intervals of edges, sized so the interval table fits in
// MemoryMiB*Threads, and intervals are then handed out greedily so every
// chunk gets about the same total cost.
type Volume struct {
	// Oriented is the degree lookup of the oriented graph being counted.
	Oriented degree.Lookup
	// Unoriented is the degree lookup of the original undirected graph.
	// If nil, oriented degrees are used and every edge costs 1.
	Unoriented degree.Lookup
	// Edges is the length of the oriented adjacency file.
	Edges     uint64
	MemoryMiB uint64
	Threads   int
	Chunks    int
}

// Balance implements Strategy.
func (v Volume) Balance() (*Plan, error) {
	if v.Chunks < 1 {
		return nil, ErrNoChunks
	}
	maxver := v.Oriented.GraphSize()
	p := newPlan(v.Chunks)
	if v.Chunks == 1 {
		p.Bounds[1] = v.Edges
		p.AvgDegree[0] = ratio(v.Edges, maxver)
		return p, nil
	}
	if v.MemoryMiB == 0 || v.Threads < 1 {
		return nil, ErrNoMemory
	}

	interval := v.Edges*intervalEntryBytes/v.MemoryMiB/(1<<20)/uint64(v.Threads) + 1
	cum, verat, total := v.intervals(interval, maxver)

	perChunk := total / uint64(v.Chunks)
	var (
		i       int
		prevTot uint64
		prevver uint64
	)
	for j := 1; j < v.Chunks; j++ {
		for ; i < len(cum); i++ {
			if cum[i] >= prevTot+perChunk {
				break
			}
		}
		at := maxver
		if i < len(cum) {
			p.Bounds[j] = min(uint64(i)*interval, v.Edges)
			prevTot = cum[i]
			at = verat[i]
		} else {
			p.Bounds[j] = v.Edges
		}
		p.Bounds[j] = max(p.Bounds[j], p.Bounds[j-1])
		p.AvgDegree[j-1] = ratio(p.Bounds[j]-p.Bounds[j-1], span(prevver, at))
		prevver = at
	}
	p.Bounds[v.Chunks] = v.Edges
	p.AvgDegree[v.Chunks-1] = ratio(v.Edges-p.Bounds[v.Chunks-1], span(prevver, maxver))
	return p, nil
}

// intervals walks the degree sequence and returns the cumulative cost at the
// end of every interval together with the vertex the interval ends in.
func (v Volume) intervals(interval, maxver uint64) (cum []uint64, verat []uint64, total uint64) {
	unoriented := v.Unoriented
	if unoriented == nil {
		unoriented = v.Oriented
	}

	var counter uint64
	for ver := uint64(0); ver < maxver; ver++ {
		fromDeg := uint64(v.Oriented.Degree(vertex.ID(ver)))
		if fromDeg == 0 {
			continue
		}
		value := uint64(1)
		if nonFromDeg := uint64(unoriented.Degree(vertex.ID(ver))); nonFromDeg >= fromDeg {
			value = nonFromDeg - fromDeg + 1
		}

		if counter+fromDeg < interval {
			counter += fromDeg
			total += fromDeg * value
			continue
		}

		total += (interval - counter) * value
		cum = append(cum, total)
		verat = append(verat, ver)
		fromDeg = fromDeg + counter - interval
		for fromDeg >= interval {
			total += interval * value
			cum = append(cum, total)
			verat = append(verat, ver)
			fromDeg -= interval
		}
		counter = fromDeg
		total += fromDeg * value
	}
	if counter > 0 {
		cum = append(cum, total)
		verat = append(verat, maxver)
	}
	return cum, verat, total
}

func span(from, to uint64) uint64 {
	if to <= from {
		return 1
	}
	return to - from
}

func ratio(edges, vertices uint64) float64 {
	if vertices == 0 {
		return 0
	}
	return float64(edges) / float64(vertices)
}
