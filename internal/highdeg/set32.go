//go:build !vx64

package highdeg

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/trilist/internal/vertex"
)

type set = roaring.Bitmap

func newSet() *set { return roaring.New() }

func add(s *set, v vertex.ID) { s.Add(uint32(v)) }

func has(s *set, v vertex.ID) bool { return s.Contains(uint32(v)) }
