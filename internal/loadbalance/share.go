package loadbalance

import (
	"math"
	"math/bits"
)

// MemoryShare splits a budget of budget per chunk over count chunks in
// proportion to a chunk's edges out of the span edges of all of them, that
// is budget*count*edges/span. The product is carried in 192 bits and the
// result saturates at math.MaxUint64. A zero span yields budget.
func MemoryShare(budget uint64, count int, edges, span uint64) uint64 {
	if span == 0 {
		return budget
	}
	if count < 0 {
		count = 0
	}
	hi, lo := bits.Mul64(budget, uint64(count))

	// (hi:lo) * edges = (top:mid:low)
	carry, low := bits.Mul64(lo, edges)
	top, mid := bits.Mul64(hi, edges)
	mid, c := bits.Add64(mid, carry, 0)
	top += c

	if top != 0 || mid >= span {
		return math.MaxUint64
	}
	q, _ := bits.Div64(mid, low, span)
	return q
}
