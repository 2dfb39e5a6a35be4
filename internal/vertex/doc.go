// Package vertex defines the fixed-width vertex identifier shared by every
// on-disk and on-wire graph structure.
//
// IDs are 32-bit unsigned integers by default. Building with the vx64 tag
// switches every file format and wire message to 64-bit IDs; both sides of a
// distributed job must be built with the same width.
//
// Files are written in machine-native byte order without headers. The wire
// protocol uses network (big-endian) byte order.
package vertex
