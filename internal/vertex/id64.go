//go:build vx64

package vertex

import "encoding/binary"

// ID is a vertex identifier.
type ID uint64

// Width is the size of an encoded ID in bytes.
const Width = 8

// Get decodes a native-endian ID from b.
func Get(b []byte) ID { return ID(binary.NativeEndian.Uint64(b)) }

// Put encodes v into b in native byte order.
func Put(b []byte, v ID) { binary.NativeEndian.PutUint64(b, uint64(v)) }

// GetWire decodes a big-endian ID from b.
func GetWire(b []byte) ID { return ID(binary.BigEndian.Uint64(b)) }

// PutWire encodes v into b in big-endian byte order.
func PutWire(b []byte, v ID) { binary.BigEndian.PutUint64(b, uint64(v)) }
