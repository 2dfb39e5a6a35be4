// Package intersect intersects ascending, duplicate-free ID lists.
package intersect

import (
	"slices"

	"github.com/hupe1980/trilist/internal/vertex"
)

const (
	// sumCutoff is the combined length up to which merging always wins.
	sumCutoff = 100
	// ratioCutoff is the minimum size skew for divide and conquer.
	ratioCutoff = 5
)

func useMerge(na, nb int) bool {
	sum := na + nb
	return sum <= sumCutoff || sum < ratioCutoff*min(na, nb)
}

// Intersect returns |a ∩ b|. If out is non-nil the common IDs are written to
// it in ascending order; it must hold min(len(a), len(b)) IDs.
func Intersect(a, b, out []vertex.ID) int {
	if useMerge(len(a), len(b)) {
		return Merge(a, b, out)
	}
	return Divide(a, b, out)
}

// Merge intersects a and b with a linear two-pointer walk.
func Merge(a, b, out []vertex.ID) int {
	i, j, n := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			if out != nil {
				out[n] = a[i]
			}
			n++
			i++
			j++
		}
	}
	return n
}

// Divide intersects a and b by splitting the shorter list at its median and
// binary searching the median in the longer one. Balanced sub-problems fall
// back to Merge.
func Divide(a, b, out []vertex.ID) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if useMerge(len(a), len(b)) {
		return Merge(a, b, out)
	}
	if len(b) < len(a) {
		a, b = b, a
	}

	mid := len(a) / 2
	val := a[mid]
	lb, _ := slices.BinarySearch(b, val)

	n := Divide(a[:mid], b[:lb], out)
	if lb < len(b) && b[lb] == val {
		if out != nil {
			out[n] = val
		}
		n++
		lb++
	}

	mid++
	if mid < len(a) && lb < len(b) {
		var rest []vertex.ID
		if out != nil {
			rest = out[n:]
		}
		n += Divide(a[mid:], b[lb:], rest)
	}
	return n
}
