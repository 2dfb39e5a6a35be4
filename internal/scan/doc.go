// Package scan streams an adjacency file as directed edges.
//
// A Scanner reconstructs the source vertex at an arbitrary edge offset by
// summing degrees from vertex 0, then reads the file in fixed-size blocks and
// presents every value to a Handler as the edge (source -> value). A Handler
// that cannot take an edge yet returns Defer: the scanner closes the current
// phase (ProcessPhase, PhaseSetUp) and presents the same edge again.
//
// Hook order for one Scan:
//
//	OverallSetUp
//	PhaseSetUp
//	HandleEdge ... [ProcessPhase PhaseSetUp HandleEdge(same edge)] ...
//	ProcessPhase
//	OverallTearDown
package scan
