// Package trilist lists and counts the triangles of graphs too large for
// memory.
//
// trilist is an out-of-core, parallel and distributed implementation of the
// PDTL approach: a graph is oriented by degree, its edge range is cut into
// chunks of similar work, and every chunk is processed by an MGT engine that
// pages a window of vertices into a fixed memory budget and streams the
// adjacency file past it.
//
// # Graph Files
//
// A graph named base is stored as two binary files of fixed-width vertex IDs
// (32-bit, or 64-bit with the vx64 build tag):
//
//	base.adj  targets of every vertex, grouped by ascending source
//	base.deg  (id, degree) pairs with explicit zero entries for gaps
//
// The triangle listing of a run goes to base.out as (u, v, w) triples.
//
// # Quick Start
//
//	ctx := context.Background()
//
//	// Orient an undirected graph and count its triangles on 8 engines
//	// with 512 MiB each.
//	res, _ := trilist.Count(ctx, "twitter",
//	    trilist.WithInstances(8),
//	    trilist.WithMemoryMiB(512),
//	)
//	fmt.Println(res.Triangles)
//
//	// Count an already oriented graph and list every triangle.
//	res, _ = trilist.Count(ctx, "twitter-oriented",
//	    trilist.WithMaxDegree(res.MaxDegree),
//	    trilist.WithOutput(true),
//	)
//
// # Distributed Runs
//
// The cmd/trilist binary provides the master and server roles that ship the
// oriented graph to remote machines and collect partial counts and listings.
//
// # Observability
//
// Logging uses log/slog through Logger. Per-chunk statistics can be sent to a
// Recorder (for example the SQLite run ledger used by the CLI) and to a
// metrics Observer.
package trilist
