// Package fs provides the filesystem abstraction used for graph files.
//
// Every component that touches an adjacency, degree or output file goes
// through [FileSystem], so tests can swap in [FaultyFS] to inject short writes
// and I/O failures.
//
//	f, err := fs.Open(fsys, vertex.AdjName(base))
//
// A nil FileSystem means [Default] ([LocalFS]).
//
// Filesystem calls carry no context.Context: reads and writes are synchronous
// and a scan is never cancelled halfway through a chunk.
package fs
