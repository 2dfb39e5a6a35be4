package prep

import (
	"github.com/hupe1980/trilist/internal/vertex"
)

// neighborSets holds one sorted, de-duplicated neighbor set per vertex.
type neighborSets struct {
	sets []*bitmap
}

func (n *neighborSets) add(from, to vertex.ID) {
	if uint64(from) >= uint64(len(n.sets)) {
		n.grow(uint64(from) + 1)
	}
	if n.sets[from] == nil {
		n.sets[from] = newBitmap()
	}
	addVertex(n.sets[from], to)
}

func (n *neighborSets) grow(size uint64) {
	if size <= uint64(len(n.sets)) {
		return
	}
	if size <= uint64(cap(n.sets)) {
		n.sets = n.sets[:size]
		return
	}
	grown := make([]*bitmap, size, max(size, 2*uint64(cap(n.sets))))
	copy(grown, n.sets)
	n.sets = grown
}

func (n *neighborSets) vertices() uint64 { return uint64(len(n.sets)) }

// write emits every set in vertex order.
func (n *neighborSets) write(w *Writer) error {
	for u, b := range n.sets {
		if b == nil {
			continue
		}
		it := b.Iterator()
		for it.HasNext() {
			if err := w.AddEdge(vertex.ID(u), vertex.ID(it.Next())); err != nil {
				return err
			}
		}
	}
	return nil
}
