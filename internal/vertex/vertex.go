package vertex

import "strconv"

const (
	// Uninit marks an unset ID or index slot.
	Uninit = ^ID(0)

	// MaxEdges is an edge offset past the end of any adjacency file.
	// Scanning up to MaxEdges consumes the whole file.
	MaxEdges = ^uint64(0)

	// WordsPerMiB is the number of IDs that fit in one MiB.
	WordsPerMiB = (1 << 20) / Width

	// DefaultBufferWords is the default block buffer size (4 MiB of IDs).
	DefaultBufferWords = 4 * WordsPerMiB
)

// Decode decodes len(dst) consecutive native-endian IDs from src.
// src must hold at least len(dst)*Width bytes.
func Decode(dst []ID, src []byte) {
	for i := range dst {
		dst[i] = Get(src[i*Width:])
	}
}

// Encode encodes src into dst in native byte order and returns the number of
// bytes written. dst must hold at least len(src)*Width bytes.
func Encode(dst []byte, src []ID) int {
	for i, v := range src {
		Put(dst[i*Width:], v)
	}
	return len(src) * Width
}

// AdjName returns the adjacency file name of a graph base name.
func AdjName(base string) string { return base + ".adj" }

// DegName returns the degree file name of a graph base name.
func DegName(base string) string { return base + ".deg" }

// OutName returns the triangle output file name of a graph base name.
func OutName(base string) string { return base + ".out" }

// ShardName returns the name of the i-th shard of name.
func ShardName(name string, i int) string { return name + "-" + strconv.Itoa(i) }
