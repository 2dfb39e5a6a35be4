// Package degree answers "what is the degree of vertex v" over a degree file
// of (vertex, degree) pairs.
//
// Three lookups implement the same [Lookup] capability:
//
//   - [Windowed] keeps a bounded window of pairs and reloads it by seeking to
//     the queried vertex on a miss. It suits sequential scans.
//   - [Direct] issues one positioned read per query and holds no cache. It
//     suits random access from many goroutines or tight memory.
//   - [Mapped] maps the whole file and decodes pairs in place.
//
// Which one to use is a caller-side policy; [Open] implements the default one.
// Queries outside the graph return degree 0.
package degree
