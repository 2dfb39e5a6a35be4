package transport

import (
	"fmt"
	"strings"
)

// Compression selects the stream codec.
type Compression uint8

const (
	// CompressionNone sends raw bytes.
	CompressionNone Compression = iota
	// CompressionLZ4 uses LZ4 frames (fast, modest ratio).
	CompressionLZ4
	// CompressionZSTD uses zstd frames (better ratio for adjacency files).
	CompressionZSTD
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression parses the names produced by Compression.String.
// The empty string means none.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	}
	return 0, fmt.Errorf("transport: unknown compression %q", s)
}
