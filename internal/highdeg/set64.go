//go:build vx64

package highdeg

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/trilist/internal/vertex"
)

type set = roaring64.Bitmap

func newSet() *set { return roaring64.New() }

func add(s *set, v vertex.ID) { s.Add(uint64(v)) }

func has(s *set, v vertex.ID) bool { return s.Contains(uint64(v)) }
