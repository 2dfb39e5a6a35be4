//go:build !vx64

package prep

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/trilist/internal/vertex"
)

type bitmap = roaring.Bitmap

func newBitmap() *bitmap { return roaring.New() }

func addVertex(b *bitmap, v vertex.ID) { b.Add(uint32(v)) }
