//go:build vx64

package prep

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/trilist/internal/vertex"
)

type bitmap = roaring64.Bitmap

func newBitmap() *bitmap { return roaring64.New() }

func addVertex(b *bitmap, v vertex.ID) { b.Add(uint64(v)) }
