//go:build !vx64

package vertex

import "encoding/binary"

// ID is a vertex identifier.
type ID uint32

// Width is the size of an encoded ID in bytes.
const Width = 4

// Get decodes a native-endian ID from b.
func Get(b []byte) ID { return ID(binary.NativeEndian.Uint32(b)) }

// Put encodes v into b in native byte order.
func Put(b []byte, v ID) { binary.NativeEndian.PutUint32(b, uint32(v)) }

// GetWire decodes a big-endian ID from b.
func GetWire(b []byte) ID { return ID(binary.BigEndian.Uint32(b)) }

// PutWire encodes v into b in big-endian byte order.
func PutWire(b []byte, v ID) { binary.BigEndian.PutUint32(b, uint32(v)) }
