// Package prep converts raw graphs into the degree-ordered, oriented
// adjacency format the counting engines read.
//
// The pipeline is ParseEdgeList (text edge list to directed adjacency),
// Undirect (symmetric, de-duplicated neighbor lists) and Orient (keep every
// edge once, pointing from the lower to the higher degree endpoint). All
// stages write through Writer, which emits an explicit degree pair for every
// vertex in range, zero-degree ones included.
package prep
