// Package mgt implements the windowed MGT triangle engine.
//
// The engine scans a range of an oriented adjacency file and keeps the
// out-edges of a contiguous window of source vertices in memory. When the
// next edge falls outside the window, or the edge buffer is full, the phase
// ends: the engine streams the whole adjacency file once more and, for each
// vertex u, intersects N(u) with the buffered neighbor list of every
// neighbor of u that is indexed in the window. The window then restarts at
// the deferred edge's source.
//
// Memory use is bounded by Config.MemoryBytes: fixed buffers are subtracted
// first and the remainder is split between the window index and the edge
// buffer according to the chunk's average degree.
package mgt
